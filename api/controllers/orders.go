package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vartasolar/fieldops-backend/api/middleware"
	"github.com/vartasolar/fieldops-backend/api/responses"
	"github.com/vartasolar/fieldops-backend/api/validators"
	"github.com/vartasolar/fieldops-backend/internal/syncer"
	"github.com/vartasolar/fieldops-backend/pkg/db/models"
	pkgerrors "github.com/vartasolar/fieldops-backend/pkg/errors"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
)

const maxNotesLen = 2000

// Coordinator is the slice of the sync coordinator the HTTP layer consumes.
type Coordinator interface {
	FetchOrders(ctx context.Context) ([]models.ServiceOrder, error)
	StartOrder(ctx context.Context, actorID, orderID uuid.UUID, notes *string, payload syncer.StartPayload) (bool, error)
	FinishOrder(ctx context.Context, actorID, orderID uuid.UUID, notes *string, payload syncer.FinishPayload) (bool, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, payload syncer.UpdatePayload) (bool, error)
	CreateOrder(ctx context.Context, actorID uuid.UUID, order *models.ServiceOrder) (*models.ServiceOrder, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	SyncPendingActions(ctx context.Context, actorID uuid.UUID, trigger string) (bool, error)
	Status() syncer.SyncState
}

type createOrderRequest struct {
	OrderNumber   string     `json:"order_number" validate:"required,max=64"`
	ClientName    string     `json:"client_name" validate:"required,max=255"`
	ClientAddress string     `json:"client_address" validate:"max=512"`
	ServiceType   string     `json:"service_type" validate:"max=128"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	TechnicianID  *uuid.UUID `json:"technician_id"`
	Notes         string     `json:"notes" validate:"max=2000"`
}

type startOrderRequest struct {
	Notes        *string    `json:"notes"`
	VehicleID    *uuid.UUID `json:"vehicle_id"`
	StartMileage *int       `json:"start_mileage" validate:"omitempty,min=0"`
	AuxiliaryID  *uuid.UUID `json:"auxiliary_id"`
}

type finishOrderRequest struct {
	Notes      *string `json:"notes"`
	EndMileage *int    `json:"end_mileage" validate:"omitempty,min=0"`
}

type updateOrderRequest struct {
	ClientName    *string    `json:"client_name" validate:"omitempty,max=255"`
	ClientAddress *string    `json:"client_address" validate:"omitempty,max=512"`
	ServiceType   *string    `json:"service_type" validate:"omitempty,max=128"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	TechnicianID  *uuid.UUID `json:"technician_id"`
	VehicleID     *uuid.UUID `json:"vehicle_id"`
	Notes         *string    `json:"notes" validate:"omitempty,max=2000"`
	EndMileage    *int       `json:"end_mileage" validate:"omitempty,min=0"`
}

type queuedResponse struct {
	Queued bool `json:"queued"`
}

func ListOrders(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := coord.FetchOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

func CreateOrder(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order := models.ServiceOrder{
			OrderNumber:   validators.SanitizeString(req.OrderNumber, 64),
			ClientName:    validators.SanitizeString(req.ClientName, 255),
			ClientAddress: validators.SanitizeString(req.ClientAddress, 512),
			ServiceType:   validators.SanitizeString(req.ServiceType, 128),
			ScheduledAt:   req.ScheduledAt,
			TechnicianID:  req.TechnicianID,
			Notes:         validators.SanitizeString(req.Notes, maxNotesLen),
		}

		created, err := coord.CreateOrder(r.Context(), actorID(r), &order)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func StartOrder(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req startOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		queued, err := coord.StartOrder(r.Context(), actorID(r), orderID, sanitizeNotes(req.Notes), syncer.StartPayload{
			VehicleID:    req.VehicleID,
			StartMileage: req.StartMileage,
			AuxiliaryID:  req.AuxiliaryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, queuedResponse{Queued: queued})
	}
}

func FinishOrder(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req finishOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		queued, err := coord.FinishOrder(r.Context(), actorID(r), orderID, sanitizeNotes(req.Notes), syncer.FinishPayload{
			EndMileage: req.EndMileage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, queuedResponse{Queued: queued})
	}
}

func UpdateOrder(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		queued, err := coord.UpdateOrder(r.Context(), orderID, syncer.UpdatePayload{
			ClientName:    req.ClientName,
			ClientAddress: req.ClientAddress,
			ServiceType:   req.ServiceType,
			ScheduledAt:   req.ScheduledAt,
			TechnicianID:  req.TechnicianID,
			VehicleID:     req.VehicleID,
			Notes:         sanitizeNotes(req.Notes),
			EndMileage:    req.EndMileage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, queuedResponse{Queued: queued})
	}
}

func DeleteOrder(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := coord.DeleteOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a valid uuid")
	}
	return id, nil
}

func actorID(r *http.Request) uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func sanitizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	clean := validators.SanitizeString(*notes, maxNotesLen)
	return &clean
}
