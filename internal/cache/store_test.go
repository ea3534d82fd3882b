package cache

import (
	"context"
	"encoding/json"
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

func setupCacheTestDB(t *testing.T) *gorm.DB {
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
	pendingActions := `
CREATE TABLE IF NOT EXISTS pending_actions (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  kind TEXT NOT NULL,
  order_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`
	syncMeta := `
CREATE TABLE IF NOT EXISTS sync_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
);`
	for _, ddl := range []string{serviceOrders, pendingActions, syncMeta} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func testOrder(number string) models.ServiceOrder {
	return models.ServiceOrder{
		ID:          uuid.New(),
		OrderNumber: number,
		ClientName:  "Comercial Andina",
		Status:      enums.OrderStatusPending,
		CreatedBy:   uuid.New(),
	}
}

func TestReplaceOrdersSwapsSnapshotAndStampsLastSync(t *testing.T) {
	db := setupCacheTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	stale := testOrder("SO-001")
	require.NoError(t, s.UpsertOrder(ctx, &stale))

	before, err := s.LastSyncAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, before)

	fresh := []models.ServiceOrder{testOrder("SO-002"), testOrder("SO-003")}
	require.NoError(t, s.ReplaceOrders(ctx, fresh))

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, order := range orders {
		assert.NotEqual(t, stale.ID, order.ID)
	}

	after, err := s.LastSyncAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.WithinDuration(t, time.Now(), *after, 5*time.Second)
}

func TestReplaceOrdersKeepsPendingQueue(t *testing.T) {
	db := setupCacheTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	action := models.PendingAction{
		ID:      uuid.New(),
		Kind:    enums.ActionKindStart,
		OrderID: uuid.New(),
		Payload: json.RawMessage(`{}`),
	}
	require.NoError(t, s.AppendAction(ctx, &action))
	require.NoError(t, s.ReplaceOrders(ctx, nil))

	count, err := s.ActionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertOrderReplacesByID(t *testing.T) {
	db := setupCacheTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	order := testOrder("SO-010")
	require.NoError(t, s.UpsertOrder(ctx, &order))

	order.Status = enums.OrderStatusInProgress
	require.NoError(t, s.UpsertOrder(ctx, &order))

	got, err := s.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInProgress, got.Status)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestActionsReturnInEnqueueOrder(t *testing.T) {
	db := setupCacheTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	orderID := uuid.New()
	first := models.PendingAction{ID: uuid.New(), Kind: enums.ActionKindStart, OrderID: orderID, Payload: json.RawMessage(`{}`)}
	second := models.PendingAction{ID: uuid.New(), Kind: enums.ActionKindFinish, OrderID: orderID, Payload: json.RawMessage(`{}`)}
	require.NoError(t, s.AppendAction(ctx, &first))
	require.NoError(t, s.AppendAction(ctx, &second))

	actions, err := s.Actions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, first.ID, actions[0].ID)
	assert.Equal(t, second.ID, actions[1].ID)
	assert.Less(t, actions[0].Seq, actions[1].Seq)
}

func TestRemoveActionIsIdempotent(t *testing.T) {
	db := setupCacheTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	action := models.PendingAction{ID: uuid.New(), Kind: enums.ActionKindUpdate, OrderID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, s.AppendAction(ctx, &action))

	require.NoError(t, s.RemoveAction(ctx, action.ID))
	require.NoError(t, s.RemoveAction(ctx, action.ID))

	count, err := s.ActionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
