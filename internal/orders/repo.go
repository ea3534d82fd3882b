package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vartasolar/fieldops-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FetchAll(ctx context.Context) ([]models.ServiceOrder, error) {
	var orders []models.ServiceOrder
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, order *models.ServiceOrder) (*models.ServiceOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateFields applies a partial column update and returns the row as stored,
// so callers can reconcile the cache with what the backend actually persisted.
func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.ServiceOrder, error) {
	if len(fields) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.ServiceOrder{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ServiceOrder{}).Error
}

func (r *repository) AppendAudit(ctx context.Context, audit *models.OrderAudit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(audit).Error
}
