package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vartasolar/fieldops-backend/pkg/db/models"
)

// Repository is the write-through boundary against the remote backend. Every
// method talks to Postgres over the network and fails when the backend is
// unreachable; callers decide whether to queue or surface the failure.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FetchAll(ctx context.Context) ([]models.ServiceOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	Create(ctx context.Context, order *models.ServiceOrder) (*models.ServiceOrder, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.ServiceOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AppendAudit(ctx context.Context, audit *models.OrderAudit) error
}
