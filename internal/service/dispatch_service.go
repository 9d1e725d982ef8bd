// internal/service/dispatch_service.go
package service

import (
    "context"
    "errors"
    "strings"

    "github.com/sirupsen/logrus"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
    "github.com/chillspider/jetx-marketing/internal/gateway"
    "github.com/chillspider/jetx-marketing/internal/model"
    "github.com/chillspider/jetx-marketing/internal/repository"
    "github.com/chillspider/jetx-marketing/internal/scheduler"
)

const defaultEmailPageSize = 2000

// FinishListener is called once when a campaign reaches a terminal status,
// for external listeners such as a CRM sync.
type FinishListener func(c *model.Campaign)

// DispatchService is the queue-worker entry point: it resolves the audience,
// writes the send-event ledger entry, calls the delivery gateway and records
// the campaign's terminal status.
type DispatchService struct {
    CampaignRepo  repository.CampaignRepositoryInterface
    LedgerRepo    repository.LedgerRepositoryInterface
    RecipientRepo repository.RecipientRepositoryInterface
    Push          gateway.PushGateway
    Email         gateway.EmailGateway
    Scheduler     *scheduler.Scheduler
    EmailPageSize int
    OnFinish      FinishListener
}

// Execute runs one dispatch attempt under at-least-once delivery. Returned
// errors are either terminal (appErrors.IsTerminal, campaign marked failed,
// retrying is pointless) or infrastructure failures the queue may retry;
// retrying is safe because the send-event ledger stops duplicate sends.
func (d *DispatchService) Execute(ctx context.Context, campaignID string) error {
    log := logrus.WithField("campaign_id", campaignID)

    c, err := d.CampaignRepo.GetByID(campaignID)
    if err != nil {
        var notFound *appErrors.ErrCampaignNotFound
        if errors.As(err, &notFound) {
            log.Warn("campaign gone, dropping dispatch")
            d.Scheduler.Cancel(campaignID)
            return nil
        }
        return err
    }
    if c.Status != model.CampaignActivated {
        // A deactivation (or a finished run) overtook this job.
        log.WithField("status", c.Status).Info("campaign no longer activated, dropping dispatch")
        d.Scheduler.Cancel(campaignID)
        return nil
    }

    body := c.Body()
    if strings.TrimSpace(body) == "" {
        return d.fail(c, appErrors.ErrNoContent)
    }
    msg := gateway.Message{Title: c.Name, Body: body, DeepLink: c.DeepLink}

    scope := model.ScopeAll
    var recipients []model.Recipient
    if !c.TargetsAll() {
        scope = model.ScopeSpecific
        recipients, err = d.RecipientRepo.GetByIDs(c.TargetUsers)
        if err != nil {
            return err
        }
    }

    // Resolve the concrete delivery plan before the ledger write, so a
    // specific audience with nothing to deliver to fails without leaving
    // an orphaned send event behind.
    var tokens []string
    var tokenOwner map[string]string
    var addresses []string
    if scope == model.ScopeSpecific {
        switch c.Channel {
        case model.ChannelPush:
            tokens, tokenOwner = collectTokens(recipients)
            if len(tokens) == 0 {
                return d.fail(c, appErrors.ErrNoRecipients)
            }
        case model.ChannelEmail:
            addresses = normalizeEmails(recipientEmails(recipients))
            if len(addresses) == 0 {
                return d.fail(c, appErrors.ErrNoRecipients)
            }
        }
    }

    // Idempotency gate: at most one send event per campaign, written
    // atomically with the per-recipient inbox rows.
    ev := &model.NotificationEvent{
        CampaignID: c.ID,
        Title:      msg.Title,
        Body:       msg.Body,
        Scope:      scope,
        Channel:    c.Channel,
        DeepLink:   c.DeepLink,
    }
    if err := d.LedgerRepo.CreateEvent(ev, recipientIDs(scope, recipients)); err != nil {
        if errors.Is(err, appErrors.ErrAlreadyDispatched) {
            log.Warn("send event already exists, refusing duplicate dispatch")
            return d.fail(c, appErrors.ErrAlreadyDispatched)
        }
        return err
    }

    var reach int
    switch {
    case c.Channel == model.ChannelPush && scope == model.ScopeAll:
        if err := d.Push.BroadcastPush(ctx, msg); err != nil {
            return d.fail(c, appErrors.NewGatewayFailure(err))
        }
        // Topic broadcast has no per-recipient accounting; reach stays 0.

    case c.Channel == model.ChannelPush:
        results, err := d.Push.MulticastPush(ctx, tokens, msg)
        if err != nil {
            return d.fail(c, appErrors.NewGatewayFailure(err))
        }
        reach = d.settleMulticast(log, results, tokenOwner)

    case scope == model.ScopeAll:
        if err := d.emailAll(ctx, msg); err != nil {
            return d.fail(c, appErrors.NewGatewayFailure(err))
        }

    default:
        accepted, err := d.Email.BulkEmail(ctx, addresses, msg.Title, msg.Body)
        if err != nil {
            return d.fail(c, appErrors.NewGatewayFailure(err))
        }
        reach = len(accepted)
    }

    return d.finish(c, model.CampaignSucceeded, reach)
}

// settleMulticast counts successful sends and prunes dead tokens from their
// owners so permanently unreachable devices are not retried on every future
// campaign. Pruning failures are logged and swallowed.
func (d *DispatchService) settleMulticast(log *logrus.Entry, results []gateway.TokenResult, owner map[string]string) int {
    reach := 0
    for _, res := range results {
        if res.OK {
            reach++
            continue
        }
        recipientID, ok := owner[res.Token]
        if !ok {
            continue
        }
        log.WithFields(logrus.Fields{"recipient_id": recipientID}).
            WithError(res.Err).Info("pruning dead push token")
        if err := d.RecipientRepo.RemoveToken(recipientID, res.Token); err != nil {
            log.WithField("recipient_id", recipientID).WithError(err).Warn("token prune failed")
        }
    }
    return reach
}

// emailAll pages through the full recipient population rather than loading
// it wholesale, issuing one blind-copy bulk send per page.
func (d *DispatchService) emailAll(ctx context.Context, msg gateway.Message) error {
    pageSize := d.EmailPageSize
    if pageSize <= 0 {
        pageSize = defaultEmailPageSize
    }

    for offset := 0; ; offset += pageSize {
        page, err := d.RecipientRepo.ListPage(offset, pageSize)
        if err != nil {
            return err
        }
        addresses := normalizeEmails(recipientEmails(page))
        if len(addresses) > 0 {
            if _, err := d.Email.BulkEmail(ctx, addresses, msg.Title, msg.Body); err != nil {
                return err
            }
        }
        if len(page) < pageSize {
            return nil
        }
    }
}

// finish records the terminal status with a compare-and-set on the activated
// row, so a concurrent administrative write cannot be silently overwritten,
// then clears any stray timer and notifies the finish listener.
func (d *DispatchService) finish(c *model.Campaign, status model.CampaignStatus, reach int) error {
    ok, err := d.CampaignRepo.FinishFrom(c.ID, model.CampaignActivated, status, reach)
    if err != nil {
        return err
    }
    d.Scheduler.Cancel(c.ID)
    if ok {
        c.Status = status
        c.Reach = reach
        logrus.WithFields(logrus.Fields{
            "campaign_id": c.ID,
            "status":      status,
            "reach":       reach,
        }).Info("campaign finished")
        if d.OnFinish != nil {
            d.OnFinish(c)
        }
    }
    return nil
}

func (d *DispatchService) fail(c *model.Campaign, cause error) error {
    logrus.WithField("campaign_id", c.ID).WithError(cause).Warn("dispatch failed")
    if err := d.finish(c, model.CampaignFailed, 0); err != nil {
        return err
    }
    return cause
}

func collectTokens(recipients []model.Recipient) ([]string, map[string]string) {
    tokens := []string{}
    owner := map[string]string{}
    for _, rec := range recipients {
        for _, token := range rec.PushTokens {
            if token == "" {
                continue
            }
            tokens = append(tokens, token)
            owner[token] = rec.ID
        }
    }
    return tokens, owner
}

func recipientEmails(recipients []model.Recipient) []string {
    emails := make([]string, 0, len(recipients))
    for _, rec := range recipients {
        emails = append(emails, rec.Email)
    }
    return emails
}

func recipientIDs(scope model.NotificationScope, recipients []model.Recipient) []string {
    if scope != model.ScopeSpecific {
        return nil
    }
    ids := make([]string, 0, len(recipients))
    for _, rec := range recipients {
        ids = append(ids, rec.ID)
    }
    return ids
}

// normalizeEmails lowercases, trims and deduplicates, preserving order.
func normalizeEmails(emails []string) []string {
    seen := map[string]bool{}
    out := []string{}
    for _, e := range emails {
        e = strings.ToLower(strings.TrimSpace(e))
        if e == "" || seen[e] {
            continue
        }
        seen[e] = true
        out = append(out, e)
    }
    return out
}
