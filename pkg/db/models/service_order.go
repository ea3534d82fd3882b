package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vartasolar/fieldops-backend/pkg/enums"
)

// ServiceOrder represents one scheduled unit of field work. The same model is
// persisted in the remote Postgres schema and in the local cache snapshot.
type ServiceOrder struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber         string            `gorm:"column:order_number;not null" json:"order_number"`
	ClientName          string            `gorm:"column:client_name;not null" json:"client_name"`
	ClientAddress       string            `gorm:"column:client_address" json:"client_address"`
	ServiceType         string            `gorm:"column:service_type" json:"service_type"`
	Status              enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	ScheduledAt         *time.Time        `gorm:"column:scheduled_at" json:"scheduled_at,omitempty"`
	TechnicianID        *uuid.UUID        `gorm:"column:technician_id;type:uuid" json:"technician_id,omitempty"`
	AuxiliaryID         *uuid.UUID        `gorm:"column:auxiliary_id;type:uuid" json:"auxiliary_id,omitempty"`
	VehicleID           *uuid.UUID        `gorm:"column:vehicle_id;type:uuid" json:"vehicle_id,omitempty"`
	Notes               string            `gorm:"column:notes" json:"notes"`
	StartMileage        *int              `gorm:"column:start_mileage" json:"start_mileage,omitempty"`
	EndMileage          *int              `gorm:"column:end_mileage" json:"end_mileage,omitempty"`
	ChecklistTemplateID *uuid.UUID        `gorm:"column:checklist_template_id;type:uuid" json:"checklist_template_id,omitempty"`
	CreatedBy           uuid.UUID         `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName keeps the table name identical in both the remote and cache schemas.
func (ServiceOrder) TableName() string {
	return "service_orders"
}
