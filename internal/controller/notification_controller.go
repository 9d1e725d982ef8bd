// internal/controller/notification_controller.go
package controller

import (
    "encoding/json"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    "github.com/chillspider/jetx-marketing/internal/service"
)

type NotificationController struct {
    NotificationService *service.NotificationService
}

func (c *NotificationController) ListInbox(w http.ResponseWriter, r *http.Request) {
    recipientID := chi.URLParam(r, "id")
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

    deliveries, err := c.NotificationService.Inbox(r.Context(), recipientID, page, pageSize)
    if err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{"data": deliveries})
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
    recipientID := chi.URLParam(r, "id")
    eventID := chi.URLParam(r, "eventID")

    if err := c.NotificationService.MarkRead(r.Context(), recipientID, eventID); err != nil {
        writeErr(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{"event_id": eventID, "status": "read"})
}

func (c *NotificationController) DeleteNotification(w http.ResponseWriter, r *http.Request) {
    recipientID := chi.URLParam(r, "id")
    eventID := chi.URLParam(r, "eventID")

    if err := c.NotificationService.Remove(r.Context(), recipientID, eventID); err != nil {
        writeErr(w, err)
        return
    }

    w.WriteHeader(http.StatusNoContent)
}

func (c *NotificationController) GetCampaignEvent(w http.ResponseWriter, r *http.Request) {
    campaignID := chi.URLParam(r, "id")

    ev, err := c.NotificationService.EventForCampaign(r.Context(), campaignID)
    if err != nil {
        writeErr(w, err)
        return
    }
    if ev == nil {
        http.Error(w, "campaign has no send event", http.StatusNotFound)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(ev)
}
