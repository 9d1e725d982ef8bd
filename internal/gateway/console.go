package gateway

import (
    "context"

    "github.com/sirupsen/logrus"
)

// ConsoleGateway logs deliveries instead of sending them. Used when no FCM
// credentials or SMTP host are configured, so the dispatcher can run
// end-to-end in development.
type ConsoleGateway struct{}

func (ConsoleGateway) BroadcastPush(ctx context.Context, msg Message) error {
    logrus.WithField("title", msg.Title).Info("console: broadcast push")
    return nil
}

func (ConsoleGateway) MulticastPush(ctx context.Context, tokens []string, msg Message) ([]TokenResult, error) {
    logrus.WithFields(logrus.Fields{"title": msg.Title, "tokens": len(tokens)}).Info("console: multicast push")
    results := make([]TokenResult, len(tokens))
    for i, token := range tokens {
        results[i] = TokenResult{Token: token, OK: true}
    }
    return results, nil
}

func (ConsoleGateway) BulkEmail(ctx context.Context, addresses []string, subject, body string) ([]string, error) {
    logrus.WithFields(logrus.Fields{"subject": subject, "addresses": len(addresses)}).Info("console: bulk email")
    return addresses, nil
}

var (
    _ PushGateway  = ConsoleGateway{}
    _ EmailGateway = ConsoleGateway{}
)
