package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vartasolar/fieldops-backend/pkg/db/models"
	"github.com/vartasolar/fieldops-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	serviceOrders := `
CREATE TABLE IF NOT EXISTS service_orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL,
  client_name TEXT NOT NULL,
  client_address TEXT,
  service_type TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  scheduled_at DATETIME,
  technician_id TEXT,
  auxiliary_id TEXT,
  vehicle_id TEXT,
  notes TEXT,
  start_mileage INTEGER,
  end_mileage INTEGER,
  checklist_template_id TEXT,
  created_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	audit := `
CREATE TABLE IF NOT EXISTS service_order_audit (
  id TEXT PRIMARY KEY,
  service_order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  action TEXT NOT NULL,
  old_status TEXT,
  new_status TEXT,
  notes TEXT,
  created_at DATETIME
);`
	for _, ddl := range []string{serviceOrders, audit} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, number string, createdAt time.Time) models.ServiceOrder {
	t.Helper()
	order := models.ServiceOrder{
		ID:          uuid.New(),
		OrderNumber: number,
		ClientName:  "Planta Norte",
		Status:      enums.OrderStatusPending,
		CreatedBy:   uuid.New(),
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestFetchAllOrdersNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	older := seedOrder(t, db, "SO-100", time.Now().Add(-time.Hour))
	newer := seedOrder(t, db, "SO-101", time.Now())

	orders, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestUpdateFieldsReturnsStoredRow(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, "SO-102", time.Now())

	updated, err := repo.UpdateFields(ctx, order.ID, map[string]any{
		"status": enums.OrderStatusInProgress,
		"notes":  "panel access cleared",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInProgress, updated.Status)
	assert.Equal(t, "panel access cleared", updated.Notes)
}

func TestUpdateFieldsMissingOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.UpdateFields(context.Background(), uuid.New(), map[string]any{
		"status": enums.OrderStatusInProgress,
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAppendAuditAssignsID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, "SO-103", time.Now())
	audit := models.OrderAudit{
		ServiceOrderID: order.ID,
		UserID:         uuid.New(),
		Action:         enums.AuditActionStarted,
		OldStatus:      enums.OrderStatusPending,
		NewStatus:      enums.OrderStatusInProgress,
	}
	require.NoError(t, repo.AppendAudit(ctx, &audit))
	assert.NotEqual(t, uuid.Nil, audit.ID)

	var count int64
	require.NoError(t, db.Model(&models.OrderAudit{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, "SO-104", time.Now())
	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err := repo.FindByID(ctx, order.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
