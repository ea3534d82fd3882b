package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vartasolar/fieldops-backend/pkg/enums"
)

// PendingAction is a deferred order mutation awaiting replay against the
// remote backend. Rows live only in the local cache database, are never
// mutated after insertion, and are removed one at a time on successful replay.
// Seq preserves enqueue order for the FIFO drain.
type PendingAction struct {
	Seq       int64            `gorm:"column:seq;primaryKey;autoIncrement"`
	ID        uuid.UUID        `gorm:"column:id;type:uuid;not null;uniqueIndex"`
	Kind      enums.ActionKind `gorm:"column:kind;not null"`
	OrderID   uuid.UUID        `gorm:"column:order_id;type:uuid;not null"`
	Payload   json.RawMessage  `gorm:"column:payload;not null"`
	Notes     *string          `gorm:"column:notes"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (PendingAction) TableName() string {
	return "pending_actions"
}
