// Package gateway holds the Delivery Gateway contract the dispatcher sends
// through, plus the FCM and SMTP implementations. The core treats these as
// black boxes; retry and backoff inside a gateway are its own concern.
package gateway

import "context"

type Message struct {
    Title    string
    Body     string
    DeepLink string
}

// TokenResult is the per-token outcome of a multicast push.
type TokenResult struct {
    Token string
    OK    bool
    Err   error
}

type PushGateway interface {
    // BroadcastPush sends topic-style to the full installed base. No
    // per-recipient accounting is possible on this path.
    BroadcastPush(ctx context.Context, msg Message) error

    // MulticastPush sends to an explicit token list and reports a
    // per-token outcome.
    MulticastPush(ctx context.Context, tokens []string, msg Message) ([]TokenResult, error)
}

type EmailGateway interface {
    // BulkEmail delivers one blind-copy message to all addresses and
    // returns the subset the provider accepted.
    BulkEmail(ctx context.Context, addresses []string, subject, body string) ([]string, error)
}
