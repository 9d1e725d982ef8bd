package gateway

import (
    "context"

    firebase "firebase.google.com/go/v4"
    "firebase.google.com/go/v4/messaging"
    "google.golang.org/api/option"
)

// FCMGateway delivers push notifications through Firebase Cloud Messaging.
type FCMGateway struct {
    client *messaging.Client
    topic  string
}

func NewFCMGateway(ctx context.Context, credentialsFile, topic string) (*FCMGateway, error) {
    app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
    if err != nil {
        return nil, err
    }
    client, err := app.Messaging(ctx)
    if err != nil {
        return nil, err
    }
    return &FCMGateway{client: client, topic: topic}, nil
}

func (g *FCMGateway) BroadcastPush(ctx context.Context, msg Message) error {
    _, err := g.client.Send(ctx, &messaging.Message{
        Topic:        g.topic,
        Notification: notification(msg),
        Data:         data(msg),
    })
    return err
}

func (g *FCMGateway) MulticastPush(ctx context.Context, tokens []string, msg Message) ([]TokenResult, error) {
    resp, err := g.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
        Tokens:       tokens,
        Notification: notification(msg),
        Data:         data(msg),
    })
    if err != nil {
        return nil, err
    }

    results := make([]TokenResult, len(tokens))
    for i, r := range resp.Responses {
        results[i] = TokenResult{Token: tokens[i], OK: r.Success, Err: r.Error}
    }
    return results, nil
}

func notification(msg Message) *messaging.Notification {
    return &messaging.Notification{
        Title: msg.Title,
        Body:  msg.Body,
    }
}

func data(msg Message) map[string]string {
    if msg.DeepLink == "" {
        return nil
    }
    return map[string]string{"deep_link": msg.DeepLink}
}

var _ PushGateway = (*FCMGateway)(nil)
