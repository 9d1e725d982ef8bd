// internal/service/campaign_service.go
package service

import (
    "context"
    "time"

    "github.com/sirupsen/logrus"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
    "github.com/chillspider/jetx-marketing/internal/model"
    "github.com/chillspider/jetx-marketing/internal/queue"
    "github.com/chillspider/jetx-marketing/internal/repository"
    "github.com/chillspider/jetx-marketing/internal/scheduler"
)

// CampaignService owns the campaign state machine: it persists campaigns,
// decides whether they fire now or later, and keeps the scheduler's timer
// registry in line with the store.
type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    Scheduler    *scheduler.Scheduler
    Queue        queue.Queue
}

// CampaignPatch carries the mutable fields of an update; nil fields are
// left unchanged.
type CampaignPatch struct {
    Name          *string
    NotifyContent *string
    EmailContent  *string
    TargetUsers   *[]string
    ScheduleTime  *time.Time
    Channel       *model.Channel
    DeepLink      *string
    Status        *model.CampaignStatus
}

// Create persists a new campaign as activated and runs the scheduling
// decision.
func (s *CampaignService) Create(ctx context.Context, c *model.Campaign) (*model.Campaign, error) {
    c.Status = model.CampaignActivated
    if err := s.CampaignRepo.Create(c); err != nil {
        return nil, err
    }
    if err := s.Process(ctx, c); err != nil {
        return nil, err
    }
    return c, nil
}

// Update merges a patch over a pending scheduled campaign. Only campaigns
// with a live timer can be updated; anything else already ran or was never
// scheduled, and changing it would be meaningless.
func (s *CampaignService) Update(ctx context.Context, id string, patch CampaignPatch) (*model.Campaign, error) {
    c, err := s.CampaignRepo.GetByID(id)
    if err != nil {
        return nil, err
    }
    if !s.Scheduler.Exists(id) {
        return nil, appErrors.NewNotSchedulable(id)
    }

    s.Scheduler.Cancel(id)
    applyPatch(c, patch)

    if err := s.CampaignRepo.Update(c); err != nil {
        return nil, err
    }
    if c.Status == model.CampaignActivated {
        if err := s.Process(ctx, c); err != nil {
            return nil, err
        }
    }
    return c, nil
}

// Deactivate cancels a pending scheduled campaign.
func (s *CampaignService) Deactivate(ctx context.Context, id string) error {
    c, err := s.CampaignRepo.GetByID(id)
    if err != nil {
        return err
    }
    if c.Status != model.CampaignActivated || !s.Scheduler.Exists(id) {
        return appErrors.NewNotSchedulable(id)
    }

    s.Scheduler.Cancel(id)
    return s.CampaignRepo.UpdateStatus(id, model.CampaignDeactivated)
}

// Process is the scheduling decision point: a future schedule time registers
// a timer, anything else (no schedule, or a time that already elapsed, e.g.
// after a restart) enqueues immediately.
func (s *CampaignService) Process(ctx context.Context, c *model.Campaign) error {
    if c.Status != model.CampaignActivated {
        return nil
    }

    if c.ScheduleTime != nil && c.ScheduleTime.After(time.Now().UTC()) {
        id := c.ID
        s.Scheduler.Schedule(id, *c.ScheduleTime, func() {
            if err := s.Queue.Enqueue(context.Background(), id); err != nil {
                logrus.WithField("campaign_id", id).WithError(err).Error("timer enqueue failed")
            }
        })
        return nil
    }

    return s.Queue.Enqueue(ctx, c.ID)
}

// Rehydrate rebuilds timers from the store on process start. Campaigns whose
// fire time elapsed while the process was down fall through Process into an
// immediate enqueue rather than being lost.
func (s *CampaignService) Rehydrate(ctx context.Context) error {
    campaigns, err := s.CampaignRepo.ListScheduled()
    if err != nil {
        return err
    }
    for _, c := range campaigns {
        if err := s.Process(ctx, c); err != nil {
            return err
        }
    }
    logrus.WithField("count", len(campaigns)).Info("rehydrated scheduled campaigns")
    return nil
}

// Get fetches a campaign by id.
func (s *CampaignService) Get(ctx context.Context, id string) (*model.Campaign, error) {
    return s.CampaignRepo.GetByID(id)
}

// List fetches campaigns with pagination.
func (s *CampaignService) List(ctx context.Context, page, pageSize int, channel, status string) ([]model.Campaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.CampaignRepo.List(offset, pageSize, channel, status)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.Campaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }
    return campaigns, pagination, nil
}

func applyPatch(c *model.Campaign, p CampaignPatch) {
    if p.Name != nil {
        c.Name = *p.Name
    }
    if p.NotifyContent != nil {
        c.NotifyContent = *p.NotifyContent
    }
    if p.EmailContent != nil {
        c.EmailContent = *p.EmailContent
    }
    if p.TargetUsers != nil {
        c.TargetUsers = *p.TargetUsers
    }
    if p.ScheduleTime != nil {
        c.ScheduleTime = p.ScheduleTime
    }
    if p.Channel != nil {
        c.Channel = *p.Channel
    }
    if p.DeepLink != nil {
        c.DeepLink = *p.DeepLink
    }
    if p.Status != nil {
        c.Status = *p.Status
    }
}
