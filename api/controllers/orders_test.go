package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vartasolar/fieldops-backend/internal/syncer"
	"github.com/vartasolar/fieldops-backend/pkg/db/models"
	"github.com/vartasolar/fieldops-backend/pkg/enums"
	pkgerrors "github.com/vartasolar/fieldops-backend/pkg/errors"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
)

type stubCoordinator struct {
	orders     []models.ServiceOrder
	fetchErr   error
	startResp  bool
	startErr   error
	finishResp bool
	finishErr  error
	updateResp bool
	updateErr  error
	createErr  error
	deleteErr  error
	syncClean  bool
	state      syncer.SyncState

	startedOrder uuid.UUID
	startedNotes *string
}

func (s *stubCoordinator) FetchOrders(context.Context) ([]models.ServiceOrder, error) {
	return s.orders, s.fetchErr
}

func (s *stubCoordinator) StartOrder(_ context.Context, _, orderID uuid.UUID, notes *string, _ syncer.StartPayload) (bool, error) {
	s.startedOrder = orderID
	s.startedNotes = notes
	return s.startResp, s.startErr
}

func (s *stubCoordinator) FinishOrder(context.Context, uuid.UUID, uuid.UUID, *string, syncer.FinishPayload) (bool, error) {
	return s.finishResp, s.finishErr
}

func (s *stubCoordinator) UpdateOrder(context.Context, uuid.UUID, syncer.UpdatePayload) (bool, error) {
	return s.updateResp, s.updateErr
}

func (s *stubCoordinator) CreateOrder(_ context.Context, _ uuid.UUID, order *models.ServiceOrder) (*models.ServiceOrder, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	order.ID = uuid.New()
	return order, nil
}

func (s *stubCoordinator) DeleteOrder(context.Context, uuid.UUID) error {
	return s.deleteErr
}

func (s *stubCoordinator) SyncPendingActions(context.Context, uuid.UUID, string) (bool, error) {
	return s.syncClean, nil
}

func (s *stubCoordinator) Status() syncer.SyncState {
	return s.state
}

func testRouter(stub *stubCoordinator) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
	r := chi.NewRouter()
	r.Get("/api/v1/orders", ListOrders(stub, logg))
	r.Post("/api/v1/orders", CreateOrder(stub, logg))
	r.Post("/api/v1/orders/{id}/start", StartOrder(stub, logg))
	r.Post("/api/v1/orders/{id}/finish", FinishOrder(stub, logg))
	r.Patch("/api/v1/orders/{id}", UpdateOrder(stub, logg))
	r.Delete("/api/v1/orders/{id}", DeleteOrder(stub, logg))
	r.Post("/api/v1/sync", TriggerSync(stub, logg))
	r.Get("/api/v1/sync/status", SyncStatus(stub))
	return r
}

func TestListOrders(t *testing.T) {
	stub := &stubCoordinator{orders: []models.ServiceOrder{{
		ID:          uuid.New(),
		OrderNumber: "OS-2024-001",
		ClientName:  "Bodega Central",
		Status:      enums.OrderStatusPending,
	}}}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "OS-2024-001")
}

func TestStartOrderQueuedResponse(t *testing.T) {
	stub := &stubCoordinator{startResp: true}
	router := testRouter(stub)

	orderID := uuid.New()
	body := `{"notes":"  started in field  ","vehicle_id":"` + uuid.NewString() + `","start_mileage":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/start", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data struct {
			Queued bool `json:"queued"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Queued)
	assert.Equal(t, orderID, stub.startedOrder)
	require.NotNil(t, stub.startedNotes)
	assert.Equal(t, "started in field", *stub.startedNotes, "notes are trimmed")
}

func TestStartOrderRejectsBadID(t *testing.T) {
	router := testRouter(&stubCoordinator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/start", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStartOrderMapsStateConflict(t *testing.T) {
	stub := &stubCoordinator{startErr: pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be started from pending")}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/start", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "STATE_CONFLICT")
}

func TestCreateOrderValidatesBody(t *testing.T) {
	router := testRouter(&stubCoordinator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"client_name":"x"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "order_number")
}

func TestCreateOrderOfflineMapsTo503(t *testing.T) {
	stub := &stubCoordinator{createErr: pkgerrors.New(pkgerrors.CodeOffline, "creating orders requires connectivity")}
	router := testRouter(stub)

	body := `{"order_number":"OS-2024-002","client_name":"Finca Sur"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "OFFLINE")
}

func TestTriggerSyncReportsState(t *testing.T) {
	stub := &stubCoordinator{syncClean: true, state: syncer.SyncState{Online: true, PendingCount: 0}}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data struct {
			Clean bool             `json:"clean"`
			State syncer.SyncState `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Clean)
	assert.True(t, envelope.Data.State.Online)
}

func TestSyncStatus(t *testing.T) {
	stub := &stubCoordinator{state: syncer.SyncState{Online: false, PendingCount: 3}}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data syncer.SyncState `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Online)
	assert.Equal(t, int64(3), envelope.Data.PendingCount)
}
