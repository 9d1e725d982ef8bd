package gateway

import (
    "context"
    "crypto/tls"
    "fmt"
    "net/smtp"

    "github.com/sirupsen/logrus"
)

// SMTPGateway sends one blind-copy message per BulkEmail call: recipients go
// only into the SMTP envelope (RCPT), never into headers.
type SMTPGateway struct {
    Host     string
    Port     string
    From     string
    Password string
}

func (g *SMTPGateway) BulkEmail(ctx context.Context, addresses []string, subject, body string) ([]string, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }

    client, err := g.dial()
    if err != nil {
        return nil, err
    }
    defer client.Quit()

    if err := client.Mail(g.From); err != nil {
        return nil, err
    }

    accepted := make([]string, 0, len(addresses))
    for _, addr := range addresses {
        if err := client.Rcpt(addr); err != nil {
            logrus.WithField("address", addr).WithError(err).Warn("recipient rejected")
            continue
        }
        accepted = append(accepted, addr)
    }
    if len(accepted) == 0 {
        return nil, fmt.Errorf("all %d recipients rejected", len(addresses))
    }

    wc, err := client.Data()
    if err != nil {
        return nil, err
    }
    msg := "From: " + g.From + "\r\n" +
        "Subject: " + subject + "\r\n" +
        "Content-Type: text/plain; charset=UTF-8\r\n" +
        "\r\n" +
        body + "\r\n"
    if _, err := wc.Write([]byte(msg)); err != nil {
        wc.Close()
        return nil, err
    }
    if err := wc.Close(); err != nil {
        return nil, err
    }

    return accepted, nil
}

func (g *SMTPGateway) dial() (*smtp.Client, error) {
    client, err := smtp.Dial(g.Host + ":" + g.Port)
    if err != nil {
        return nil, err
    }
    if err := client.StartTLS(&tls.Config{ServerName: g.Host}); err != nil {
        client.Close()
        return nil, err
    }
    auth := smtp.PlainAuth("", g.From, g.Password, g.Host)
    if err := client.Auth(auth); err != nil {
        client.Close()
        return nil, err
    }
    return client, nil
}

var _ EmailGateway = (*SMTPGateway)(nil)
