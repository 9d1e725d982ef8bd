// internal/model/notification.go
package model

import "time"

type NotificationScope string

const (
    ScopeAll      NotificationScope = "all"
    ScopeSpecific NotificationScope = "specific"
)

// NotificationEvent is the durable record of one send per campaign. The
// unique constraint on CampaignID is the subsystem's idempotency guarantee.
type NotificationEvent struct {
    ID         string            `db:"id" json:"id"`
    CampaignID string            `db:"campaign_id" json:"campaign_id"`
    Title      string            `db:"title" json:"title"`
    Body       string            `db:"body" json:"body"`
    Scope      NotificationScope `db:"scope" json:"scope"`
    Channel    Channel           `db:"channel" json:"channel"`
    DeepLink   string            `db:"deep_link" json:"deep_link,omitempty"`
    CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}

// NotificationDelivery is the per-recipient inbox row written alongside a
// specific-scope event.
type NotificationDelivery struct {
    ID          string    `db:"id" json:"id"`
    EventID     string    `db:"event_id" json:"event_id"`
    RecipientID string    `db:"recipient_id" json:"recipient_id"`
    Read        bool      `db:"read" json:"read"`
    Deleted     bool      `db:"deleted" json:"deleted"`
    CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
