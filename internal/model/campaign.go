// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
    CampaignActivated   CampaignStatus = "activated"
    CampaignDeactivated CampaignStatus = "deactivated"
    CampaignSucceeded   CampaignStatus = "succeeded"
    CampaignFailed      CampaignStatus = "failed"
)

type Channel string

const (
    ChannelPush  Channel = "push"
    ChannelEmail Channel = "email"
)

type Campaign struct {
    ID            string         `db:"id" json:"id"`
    Name          string         `db:"name" json:"name"`
    NotifyContent string         `db:"notify_content" json:"notify_content"`
    EmailContent  string         `db:"email_content" json:"email_content"`
    TargetUsers   []string       `db:"target_users" json:"target_users"`
    ScheduleTime  *time.Time     `db:"schedule_time" json:"schedule_time,omitempty"`
    Status        CampaignStatus `db:"status" json:"status"`
    Channel       Channel        `db:"channel" json:"channel"`
    Reach         int            `db:"reach" json:"reach"`
    DeepLink      string         `db:"deep_link" json:"deep_link,omitempty"`
    ExternalID    string         `db:"external_id" json:"external_id,omitempty"`
    CreatedAt     time.Time      `db:"created_at" json:"created_at"`
    UpdatedAt     *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// TargetsAll reports whether the campaign addresses the full recipient
// population (an empty target list means "all users").
func (c *Campaign) TargetsAll() bool {
    return len(c.TargetUsers) == 0
}

// Body returns the message body for the campaign's channel.
func (c *Campaign) Body() string {
    if c.Channel == ChannelEmail {
        return c.EmailContent
    }
    return c.NotifyContent
}
