package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vartasolar/fieldops-backend/pkg/db/models"
)

// Store is the local cache persistence boundary. It owns the order snapshot,
// the pending-action queue and the sync metadata kept in the on-disk SQLite
// database.
type Store interface {
	ReplaceOrders(ctx context.Context, orders []models.ServiceOrder) error
	Orders(ctx context.Context) ([]models.ServiceOrder, error)
	Order(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	UpsertOrder(ctx context.Context, order *models.ServiceOrder) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	AppendAction(ctx context.Context, action *models.PendingAction) error
	Actions(ctx context.Context) ([]models.PendingAction, error)
	RemoveAction(ctx context.Context, id uuid.UUID) error
	ActionCount(ctx context.Context) (int64, error)
	LastSyncAt(ctx context.Context) (*time.Time, error)
}

type store struct {
	db *gorm.DB
}

// NewStore builds a cache store bound to the provided DB.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

// ReplaceOrders swaps the cached order snapshot for a fresh backend fetch and
// stamps the last-sync timestamp in the same transaction. Pending actions are
// untouched: the queue outlives snapshot refreshes.
func (s *store) ReplaceOrders(ctx context.Context, orders []models.ServiceOrder) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.ServiceOrder{}).Error; err != nil {
			return err
		}
		if len(orders) > 0 {
			if err := tx.Create(&orders).Error; err != nil {
				return err
			}
		}
		meta := models.SyncMeta{
			Key:   models.SyncMetaLastSync,
			Value: time.Now().UTC().Format(time.RFC3339Nano),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&meta).Error
	})
}

func (s *store) Orders(ctx context.Context) ([]models.ServiceOrder, error) {
	var orders []models.ServiceOrder
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *store) Order(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpsertOrder writes a single order into the snapshot, inserting or replacing
// by primary key. Optimistic local updates land here before replay.
func (s *store) UpsertOrder(ctx context.Context, order *models.ServiceOrder) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(order).Error
}

func (s *store) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ServiceOrder{}).Error
}

func (s *store) AppendAction(ctx context.Context, action *models.PendingAction) error {
	return s.db.WithContext(ctx).Create(action).Error
}

// Actions returns the whole queue in enqueue order.
func (s *store) Actions(ctx context.Context) ([]models.PendingAction, error) {
	var actions []models.PendingAction
	err := s.db.WithContext(ctx).
		Order("seq ASC").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// RemoveAction deletes a replayed action. Deleting an already-removed action
// is a no-op so replay cleanup stays idempotent.
func (s *store) RemoveAction(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PendingAction{}).Error
}

func (s *store) ActionCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PendingAction{}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastSyncAt returns the timestamp of the last successful snapshot refresh,
// or nil when no fetch has ever completed.
func (s *store) LastSyncAt(ctx context.Context) (*time.Time, error) {
	var meta models.SyncMeta
	err := s.db.WithContext(ctx).
		Where("key = ?", models.SyncMetaLastSync).
		First(&meta).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, meta.Value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
