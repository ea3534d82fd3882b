package syncer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vartasolar/fieldops-backend/pkg/db/models"
	"github.com/vartasolar/fieldops-backend/pkg/enums"
	"github.com/vartasolar/fieldops-backend/pkg/errors"
)

const payloadVersion = 1

// envelope wraps every queued payload so the format can evolve without
// breaking actions already sitting in the cache database.
type envelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// StartPayload carries the optional assignment data captured when a
// technician starts an order.
type StartPayload struct {
	VehicleID    *uuid.UUID `json:"vehicle_id,omitempty"`
	StartMileage *int       `json:"start_mileage,omitempty"`
	AuxiliaryID  *uuid.UUID `json:"auxiliary_id,omitempty"`
}

func (p StartPayload) fields() map[string]any {
	fields := map[string]any{"status": enums.OrderStatusInProgress}
	if p.VehicleID != nil {
		fields["vehicle_id"] = *p.VehicleID
	}
	if p.StartMileage != nil {
		fields["start_mileage"] = *p.StartMileage
	}
	if p.AuxiliaryID != nil {
		fields["auxiliary_id"] = *p.AuxiliaryID
	}
	return fields
}

func (p StartPayload) apply(order *models.ServiceOrder) {
	order.Status = enums.OrderStatusInProgress
	if p.VehicleID != nil {
		order.VehicleID = p.VehicleID
	}
	if p.StartMileage != nil {
		order.StartMileage = p.StartMileage
	}
	if p.AuxiliaryID != nil {
		order.AuxiliaryID = p.AuxiliaryID
	}
}

// FinishPayload carries no extra data: finishing is a status flip plus the
// end-of-work audit entry.
type FinishPayload struct {
	EndMileage *int `json:"end_mileage,omitempty"`
}

func (p FinishPayload) fields() map[string]any {
	fields := map[string]any{"status": enums.OrderStatusCompleted}
	if p.EndMileage != nil {
		fields["end_mileage"] = *p.EndMileage
	}
	return fields
}

func (p FinishPayload) apply(order *models.ServiceOrder) {
	order.Status = enums.OrderStatusCompleted
	if p.EndMileage != nil {
		order.EndMileage = p.EndMileage
	}
}

// UpdatePayload is a partial edit of an order's editable columns. Nil fields
// are left untouched; set fields are written verbatim on replay.
type UpdatePayload struct {
	ClientName    *string    `json:"client_name,omitempty"`
	ClientAddress *string    `json:"client_address,omitempty"`
	ServiceType   *string    `json:"service_type,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	TechnicianID  *uuid.UUID `json:"technician_id,omitempty"`
	VehicleID     *uuid.UUID `json:"vehicle_id,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	EndMileage    *int       `json:"end_mileage,omitempty"`
}

func (p UpdatePayload) fields() map[string]any {
	fields := map[string]any{}
	if p.ClientName != nil {
		fields["client_name"] = *p.ClientName
	}
	if p.ClientAddress != nil {
		fields["client_address"] = *p.ClientAddress
	}
	if p.ServiceType != nil {
		fields["service_type"] = *p.ServiceType
	}
	if p.ScheduledAt != nil {
		fields["scheduled_at"] = *p.ScheduledAt
	}
	if p.TechnicianID != nil {
		fields["technician_id"] = *p.TechnicianID
	}
	if p.VehicleID != nil {
		fields["vehicle_id"] = *p.VehicleID
	}
	if p.Notes != nil {
		fields["notes"] = *p.Notes
	}
	if p.EndMileage != nil {
		fields["end_mileage"] = *p.EndMileage
	}
	return fields
}

func (p UpdatePayload) apply(order *models.ServiceOrder) {
	if p.ClientName != nil {
		order.ClientName = *p.ClientName
	}
	if p.ClientAddress != nil {
		order.ClientAddress = *p.ClientAddress
	}
	if p.ServiceType != nil {
		order.ServiceType = *p.ServiceType
	}
	if p.ScheduledAt != nil {
		order.ScheduledAt = p.ScheduledAt
	}
	if p.TechnicianID != nil {
		order.TechnicianID = p.TechnicianID
	}
	if p.VehicleID != nil {
		order.VehicleID = p.VehicleID
	}
	if p.Notes != nil {
		order.Notes = *p.Notes
	}
	if p.EndMileage != nil {
		order.EndMileage = p.EndMileage
	}
}

func (p UpdatePayload) empty() bool {
	return len(p.fields()) == 0
}

func encodePayload(data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "encode pending action payload")
	}
	wrapped, err := json.Marshal(envelope{Version: payloadVersion, Data: raw})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "encode pending action envelope")
	}
	return wrapped, nil
}

func decodeEnvelope(raw json.RawMessage) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "decode pending action envelope")
	}
	if env.Version != payloadVersion {
		return nil, errors.New(errors.CodeInternal,
			fmt.Sprintf("unsupported pending action payload version %d", env.Version))
	}
	return env.Data, nil
}

func decodeStartPayload(raw json.RawMessage) (StartPayload, error) {
	var payload StartPayload
	data, err := decodeEnvelope(raw)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Wrap(errors.CodeInternal, err, "decode start payload")
	}
	return payload, nil
}

func decodeFinishPayload(raw json.RawMessage) (FinishPayload, error) {
	var payload FinishPayload
	data, err := decodeEnvelope(raw)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Wrap(errors.CodeInternal, err, "decode finish payload")
	}
	return payload, nil
}

func decodeUpdatePayload(raw json.RawMessage) (UpdatePayload, error) {
	var payload UpdatePayload
	data, err := decodeEnvelope(raw)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Wrap(errors.CodeInternal, err, "decode update payload")
	}
	return payload, nil
}
