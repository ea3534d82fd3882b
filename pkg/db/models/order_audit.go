package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vartasolar/fieldops-backend/pkg/enums"
)

// OrderAudit is an append-only audit row recorded on the remote backend when
// a status transition is written through.
type OrderAudit struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceOrderID uuid.UUID         `gorm:"column:service_order_id;type:uuid;not null"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Action         enums.AuditAction `gorm:"column:action;not null"`
	OldStatus      enums.OrderStatus `gorm:"column:old_status"`
	NewStatus      enums.OrderStatus `gorm:"column:new_status"`
	Notes          *string           `gorm:"column:notes"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderAudit) TableName() string {
	return "service_order_audit"
}
