// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
    "github.com/chillspider/jetx-marketing/internal/model"
    "github.com/chillspider/jetx-marketing/internal/service"
)

type CampaignController struct {
    CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Name          string     `json:"name"`
        Channel       string     `json:"channel"`
        NotifyContent string     `json:"notify_content"`
        EmailContent  string     `json:"email_content"`
        TargetUsers   []string   `json:"target_users"`
        ScheduleTime  *time.Time `json:"schedule_time"`
        DeepLink      string     `json:"deep_link"`
        ExternalID    string     `json:"external_id"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    if body.Channel != string(model.ChannelPush) && body.Channel != string(model.ChannelEmail) {
        http.Error(w, "channel must be push or email", http.StatusBadRequest)
        return
    }

    campaign, err := c.CampaignService.Create(r.Context(), &model.Campaign{
        Name:          body.Name,
        Channel:       model.Channel(body.Channel),
        NotifyContent: body.NotifyContent,
        EmailContent:  body.EmailContent,
        TargetUsers:   body.TargetUsers,
        ScheduleTime:  body.ScheduleTime,
        DeepLink:      body.DeepLink,
        ExternalID:    body.ExternalID,
    })
    if err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")

    var body struct {
        Name          *string        `json:"name"`
        NotifyContent *string        `json:"notify_content"`
        EmailContent  *string        `json:"email_content"`
        TargetUsers   *[]string      `json:"target_users"`
        ScheduleTime  *time.Time     `json:"schedule_time"`
        Channel       *model.Channel `json:"channel"`
        DeepLink      *string        `json:"deep_link"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    campaign, err := c.CampaignService.Update(r.Context(), id, service.CampaignPatch{
        Name:          body.Name,
        NotifyContent: body.NotifyContent,
        EmailContent:  body.EmailContent,
        TargetUsers:   body.TargetUsers,
        ScheduleTime:  body.ScheduleTime,
        Channel:       body.Channel,
        DeepLink:      body.DeepLink,
    })
    if err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) DeactivateCampaign(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")

    if err := c.CampaignService.Deactivate(r.Context(), id); err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{"id": id, "status": string(model.CampaignDeactivated)})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")

    campaign, err := c.CampaignService.Get(r.Context(), id)
    if err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    channel := r.URL.Query().Get("channel")
    status := r.URL.Query().Get("status")

    campaigns, pagination, err := c.CampaignService.List(r.Context(), page, pageSize, channel, status)
    if err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination,
    })
}

func writeErr(w http.ResponseWriter, err error) {
    var notFound *appErrors.ErrCampaignNotFound
    var notSchedulable *appErrors.ErrNotSchedulable

    switch {
    case errors.As(err, &notFound):
        http.Error(w, err.Error(), http.StatusNotFound)
    case errors.As(err, &notSchedulable):
        http.Error(w, err.Error(), http.StatusConflict)
    default:
        http.Error(w, err.Error(), http.StatusInternalServerError)
    }
}
