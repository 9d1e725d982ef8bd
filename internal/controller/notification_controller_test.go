package controller_test

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/chillspider/jetx-marketing/internal/controller"
    "github.com/chillspider/jetx-marketing/internal/model"
    "github.com/chillspider/jetx-marketing/internal/service"
)

type mockLedgerRepo struct {
    mu         sync.Mutex
    events     map[string]*model.NotificationEvent
    deliveries map[string][]*model.NotificationDelivery // keyed by recipient id
    read       [][2]string
    deleted    [][2]string
}

func newMockLedgerRepo() *mockLedgerRepo {
    return &mockLedgerRepo{
        events:     map[string]*model.NotificationEvent{},
        deliveries: map[string][]*model.NotificationDelivery{},
    }
}

func (m *mockLedgerRepo) CreateEvent(ev *model.NotificationEvent, recipientIDs []string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.events[ev.CampaignID] = ev
    return nil
}

func (m *mockLedgerRepo) GetEventByCampaign(campaignID string) (*model.NotificationEvent, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.events[campaignID], nil
}

func (m *mockLedgerRepo) ListDeliveries(recipientID string, offset, limit int) ([]*model.NotificationDelivery, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    all := m.deliveries[recipientID]
    if offset >= len(all) {
        return []*model.NotificationDelivery{}, nil
    }
    end := offset + limit
    if end > len(all) {
        end = len(all)
    }
    return all[offset:end], nil
}

func (m *mockLedgerRepo) MarkRead(recipientID, eventID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.read = append(m.read, [2]string{recipientID, eventID})
    return nil
}

func (m *mockLedgerRepo) SoftDelete(recipientID, eventID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.deleted = append(m.deleted, [2]string{recipientID, eventID})
    return nil
}

func newNotificationRouter(ledger *mockLedgerRepo) *chi.Mux {
    ctrl := &controller.NotificationController{
        NotificationService: &service.NotificationService{LedgerRepo: ledger},
    }
    r := chi.NewRouter()
    r.Get("/campaigns/{id}/event", ctrl.GetCampaignEvent)
    r.Get("/recipients/{id}/notifications", ctrl.ListInbox)
    r.Post("/recipients/{id}/notifications/{eventID}/read", ctrl.MarkRead)
    r.Delete("/recipients/{id}/notifications/{eventID}", ctrl.DeleteNotification)
    return r
}

func TestListInbox(t *testing.T) {
    ledger := newMockLedgerRepo()
    ledger.deliveries["u1"] = []*model.NotificationDelivery{
        {ID: "d1", EventID: "e1", RecipientID: "u1", CreatedAt: time.Now().UTC()},
        {ID: "d2", EventID: "e2", RecipientID: "u1", Read: true, CreatedAt: time.Now().UTC()},
    }
    router := newNotificationRouter(ledger)

    req := httptest.NewRequest(http.MethodGet, "/recipients/u1/notifications", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)
    var resp struct {
        Data []model.NotificationDelivery `json:"data"`
    }
    require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
    assert.Len(t, resp.Data, 2)
    assert.Equal(t, "e1", resp.Data[0].EventID)
}

func TestMarkNotificationRead(t *testing.T) {
    ledger := newMockLedgerRepo()
    router := newNotificationRouter(ledger)

    req := httptest.NewRequest(http.MethodPost, "/recipients/u1/notifications/e1/read", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, [][2]string{{"u1", "e1"}}, ledger.read)
}

func TestDeleteNotification(t *testing.T) {
    ledger := newMockLedgerRepo()
    router := newNotificationRouter(ledger)

    req := httptest.NewRequest(http.MethodDelete, "/recipients/u1/notifications/e1", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    require.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, [][2]string{{"u1", "e1"}}, ledger.deleted)
}

func TestGetCampaignEvent(t *testing.T) {
    ledger := newMockLedgerRepo()
    ledger.events["c1"] = &model.NotificationEvent{
        ID:         "e1",
        CampaignID: "c1",
        Title:      "Sunday Shine",
        Scope:      model.ScopeAll,
        Channel:    model.ChannelPush,
    }
    router := newNotificationRouter(ledger)

    req := httptest.NewRequest(http.MethodGet, "/campaigns/c1/event", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)
    var ev model.NotificationEvent
    require.NoError(t, json.NewDecoder(rec.Body).Decode(&ev))
    assert.Equal(t, "e1", ev.ID)
}

func TestGetCampaignEventNotDispatched(t *testing.T) {
    router := newNotificationRouter(newMockLedgerRepo())

    req := httptest.NewRequest(http.MethodGet, "/campaigns/never-sent/event", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    assert.Equal(t, http.StatusNotFound, rec.Code)
}
