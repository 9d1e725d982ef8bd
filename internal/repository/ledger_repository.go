package repository

import (
    "database/sql"
    "time"

    "github.com/google/uuid"
    "github.com/lib/pq"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
    "github.com/chillspider/jetx-marketing/internal/model"
)

const pqUniqueViolation = "23505"

type LedgerRepositoryInterface interface {
    // CreateEvent writes the send event and, for specific-scope sends, one
    // delivery row per recipient, in a single transaction. A second event for
    // the same campaign fails with appErrors.ErrAlreadyDispatched.
    CreateEvent(ev *model.NotificationEvent, recipientIDs []string) error

    GetEventByCampaign(campaignID string) (*model.NotificationEvent, error)

    // Per-recipient inbox state.
    ListDeliveries(recipientID string, offset, limit int) ([]*model.NotificationDelivery, error)
    MarkRead(recipientID, eventID string) error
    SoftDelete(recipientID, eventID string) error
}

type LedgerRepository struct {
    DB *sql.DB
}

func (r *LedgerRepository) CreateEvent(ev *model.NotificationEvent, recipientIDs []string) error {
    if ev.ID == "" {
        ev.ID = uuid.NewString()
    }
    ev.CreatedAt = time.Now().UTC()

    tx, err := r.DB.Begin()
    if err != nil {
        return err
    }
    defer tx.Rollback()

    query := `
        INSERT INTO notification_events (id, campaign_id, title, body, scope, channel, deep_link, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
    _, err = tx.Exec(query, ev.ID, ev.CampaignID, ev.Title, ev.Body, ev.Scope, ev.Channel, ev.DeepLink, ev.CreatedAt)
    if err != nil {
        if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
            return appErrors.ErrAlreadyDispatched
        }
        return err
    }

    for _, recipientID := range recipientIDs {
        _, err = tx.Exec(
            `INSERT INTO notification_deliveries (id, event_id, recipient_id, created_at)
             VALUES ($1, $2, $3, $4)`,
            uuid.NewString(), ev.ID, recipientID, ev.CreatedAt,
        )
        if err != nil {
            return err
        }
    }

    return tx.Commit()
}

func (r *LedgerRepository) GetEventByCampaign(campaignID string) (*model.NotificationEvent, error) {
    query := `
        SELECT id, campaign_id, title, body, scope, channel, deep_link, created_at
        FROM notification_events WHERE campaign_id=$1
    `
    var ev model.NotificationEvent
    err := r.DB.QueryRow(query, campaignID).Scan(
        &ev.ID, &ev.CampaignID, &ev.Title, &ev.Body, &ev.Scope, &ev.Channel, &ev.DeepLink, &ev.CreatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &ev, nil
}

func (r *LedgerRepository) ListDeliveries(recipientID string, offset, limit int) ([]*model.NotificationDelivery, error) {
    query := `
        SELECT id, event_id, recipient_id, read, deleted, created_at
        FROM notification_deliveries
        WHERE recipient_id=$1 AND NOT deleted
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
    rows, err := r.DB.Query(query, recipientID, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    deliveries := []*model.NotificationDelivery{}
    for rows.Next() {
        d := &model.NotificationDelivery{}
        if err := rows.Scan(&d.ID, &d.EventID, &d.RecipientID, &d.Read, &d.Deleted, &d.CreatedAt); err != nil {
            return nil, err
        }
        deliveries = append(deliveries, d)
    }
    return deliveries, rows.Err()
}

func (r *LedgerRepository) MarkRead(recipientID, eventID string) error {
    query := `UPDATE notification_deliveries SET read=TRUE WHERE recipient_id=$1 AND event_id=$2`
    _, err := r.DB.Exec(query, recipientID, eventID)
    return err
}

func (r *LedgerRepository) SoftDelete(recipientID, eventID string) error {
    query := `UPDATE notification_deliveries SET deleted=TRUE WHERE recipient_id=$1 AND event_id=$2`
    _, err := r.DB.Exec(query, recipientID, eventID)
    return err
}

var _ LedgerRepositoryInterface = (*LedgerRepository)(nil)
