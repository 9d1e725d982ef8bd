// internal/service/notification_service.go
package service

import (
    "context"

    "github.com/chillspider/jetx-marketing/internal/model"
    "github.com/chillspider/jetx-marketing/internal/repository"
)

// NotificationService exposes the per-recipient inbox built from the
// send-event ledger.
type NotificationService struct {
    LedgerRepo repository.LedgerRepositoryInterface
}

// Inbox lists a recipient's deliveries, newest first, excluding soft-deleted
// rows.
func (s *NotificationService) Inbox(ctx context.Context, recipientID string, page, pageSize int) ([]*model.NotificationDelivery, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    return s.LedgerRepo.ListDeliveries(recipientID, (page-1)*pageSize, pageSize)
}

func (s *NotificationService) MarkRead(ctx context.Context, recipientID, eventID string) error {
    return s.LedgerRepo.MarkRead(recipientID, eventID)
}

func (s *NotificationService) Remove(ctx context.Context, recipientID, eventID string) error {
    return s.LedgerRepo.SoftDelete(recipientID, eventID)
}

// EventForCampaign returns the campaign's send event, or nil when the
// campaign never dispatched.
func (s *NotificationService) EventForCampaign(ctx context.Context, campaignID string) (*model.NotificationEvent, error) {
    return s.LedgerRepo.GetEventByCampaign(campaignID)
}
