package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vartasolar/fieldops-backend/internal/cache"
	"github.com/vartasolar/fieldops-backend/internal/connectivity"
	"github.com/vartasolar/fieldops-backend/internal/orders"
	"github.com/vartasolar/fieldops-backend/pkg/db/models"
	"github.com/vartasolar/fieldops-backend/pkg/enums"
	apperrors "github.com/vartasolar/fieldops-backend/pkg/errors"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
	"github.com/vartasolar/fieldops-backend/pkg/metrics"
)

// Drain triggers, used as a metric label and in logs.
const (
	TriggerReconnect = "reconnect"
	TriggerManual    = "manual"
)

// SyncState is the coordinator's externally visible status snapshot.
type SyncState struct {
	Online       bool       `json:"online"`
	Syncing      bool       `json:"syncing"`
	PendingCount int64      `json:"pending_count"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
}

// Coordinator owns the offline-aware order workflow: the in-memory order
// snapshot, the pending-action queue, optimistic write paths with rollback,
// and the reconnection-driven drain. All mutable state lives behind its
// mutex; one coordinator is constructed per process and shared.
type Coordinator struct {
	logg    *logger.Logger
	store   cache.Store
	remote  orders.Repository
	monitor *connectivity.Monitor
	metrics *metrics.SyncMetrics

	// agentActor identifies background drains in audit rows when no user
	// identity is on hand.
	agentActor uuid.UUID

	mu           sync.Mutex
	orders       []models.ServiceOrder
	pendingCount int64
	syncing      bool
	lastSyncAt   *time.Time
	inFlight     map[uuid.UUID]struct{}
}

type CoordinatorParams struct {
	Logger     *logger.Logger
	Store      cache.Store
	Remote     orders.Repository
	Monitor    *connectivity.Monitor
	Metrics    *metrics.SyncMetrics
	AgentActor uuid.UUID
}

func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if params.Remote == nil {
		return nil, errors.New("remote repository is required")
	}
	if params.Monitor == nil {
		return nil, errors.New("connectivity monitor is required")
	}
	return &Coordinator{
		logg:       params.Logger,
		store:      params.Store,
		remote:     params.Remote,
		monitor:    params.Monitor,
		metrics:    params.Metrics,
		agentActor: params.AgentActor,
		inFlight:   make(map[uuid.UUID]struct{}),
	}, nil
}

// FetchOrders is the read path. Online it refreshes the in-memory snapshot
// from the backend and persists it to the cache; on fetch failure, or while
// offline, it serves the cached snapshot instead. It always finishes by
// recomputing the pending-action count.
func (c *Coordinator) FetchOrders(ctx context.Context) ([]models.ServiceOrder, error) {
	defer c.recomputePending(ctx)

	if c.monitor.IsOnline() {
		fetched, err := c.remote.FetchAll(ctx)
		if err == nil {
			if cacheErr := c.store.ReplaceOrders(ctx, fetched); cacheErr != nil {
				c.logg.Error(ctx, "cache snapshot write failed", cacheErr)
			}
			now := time.Now().UTC()
			c.mu.Lock()
			c.orders = fetched
			c.lastSyncAt = &now
			c.mu.Unlock()
			return c.Orders(), nil
		}
		c.logg.Error(ctx, "backend fetch failed, serving cached orders", err)
	}

	c.metrics.IncCacheFallback()
	cached, err := c.store.Orders(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "read cached orders")
	}
	lastSync, err := c.store.LastSyncAt(ctx)
	if err != nil {
		c.logg.Error(ctx, "read last-sync timestamp failed", err)
	}
	c.mu.Lock()
	c.orders = cached
	if lastSync != nil {
		c.lastSyncAt = lastSync
	}
	c.mu.Unlock()
	return c.Orders(), nil
}

// Orders returns a copy of the in-memory snapshot.
func (c *Coordinator) Orders() []models.ServiceOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ServiceOrder, len(c.orders))
	copy(out, c.orders)
	return out
}

// StartOrder transitions a pending order to in_progress. The mutation is
// applied optimistically to the in-memory list and the cache before any
// network call; a failed or impossible write-through rolls the local state
// back and queues the action for replay. Returns whether the action was
// queued rather than written through.
func (c *Coordinator) StartOrder(ctx context.Context, actorID, orderID uuid.UUID, notes *string, payload StartPayload) (bool, error) {
	ctx = c.logg.WithOrderID(ctx, orderID.String())
	if err := c.acquireInFlight(orderID); err != nil {
		return false, err
	}
	defer c.releaseInFlight(orderID)

	prev, err := c.currentOrder(orderID)
	if err != nil {
		return false, err
	}
	if prev.Status != enums.OrderStatusPending {
		return false, apperrors.New(apperrors.CodeStateConflict, "order can only be started from pending").
			WithDetails(map[string]any{"status": prev.Status})
	}

	updated := *prev
	payload.apply(&updated)
	c.applyLocal(ctx, updated)

	if c.monitor.IsOnline() {
		_, writeErr := c.remote.UpdateFields(ctx, orderID, payload.fields())
		if writeErr == nil {
			c.appendAudit(ctx, orderID, actorID, enums.AuditActionStarted,
				enums.OrderStatusPending, enums.OrderStatusInProgress, notes)
			return false, nil
		}
		c.logg.Error(ctx, "start write-through failed, queueing", writeErr)
		c.applyLocal(ctx, *prev)
	}

	if err := c.enqueue(ctx, enums.ActionKindStart, orderID, notes, payload); err != nil {
		return false, err
	}
	return true, nil
}

// FinishOrder transitions an in_progress order to completed, with the same
// optimistic/rollback/queue shape as StartOrder.
func (c *Coordinator) FinishOrder(ctx context.Context, actorID, orderID uuid.UUID, notes *string, payload FinishPayload) (bool, error) {
	ctx = c.logg.WithOrderID(ctx, orderID.String())
	if err := c.acquireInFlight(orderID); err != nil {
		return false, err
	}
	defer c.releaseInFlight(orderID)

	prev, err := c.currentOrder(orderID)
	if err != nil {
		return false, err
	}
	if prev.Status != enums.OrderStatusInProgress {
		return false, apperrors.New(apperrors.CodeStateConflict, "order can only be finished from in_progress").
			WithDetails(map[string]any{"status": prev.Status})
	}

	updated := *prev
	payload.apply(&updated)
	c.applyLocal(ctx, updated)

	if c.monitor.IsOnline() {
		_, writeErr := c.remote.UpdateFields(ctx, orderID, payload.fields())
		if writeErr == nil {
			c.appendAudit(ctx, orderID, actorID, enums.AuditActionFinished,
				enums.OrderStatusInProgress, enums.OrderStatusCompleted, notes)
			return false, nil
		}
		c.logg.Error(ctx, "finish write-through failed, queueing", writeErr)
		c.applyLocal(ctx, *prev)
	}

	if err := c.enqueue(ctx, enums.ActionKindFinish, orderID, notes, payload); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateOrder applies a partial edit. No audit entry is written and no status
// precondition applies; otherwise it follows the same optimistic pattern.
func (c *Coordinator) UpdateOrder(ctx context.Context, orderID uuid.UUID, payload UpdatePayload) (bool, error) {
	ctx = c.logg.WithOrderID(ctx, orderID.String())
	if payload.empty() {
		return false, apperrors.New(apperrors.CodeValidation, "no fields to update")
	}

	prev, err := c.currentOrder(orderID)
	if err != nil {
		return false, err
	}

	updated := *prev
	payload.apply(&updated)
	c.applyLocal(ctx, updated)

	if c.monitor.IsOnline() {
		_, writeErr := c.remote.UpdateFields(ctx, orderID, payload.fields())
		if writeErr == nil {
			return false, nil
		}
		c.logg.Error(ctx, "update write-through failed, queueing", writeErr)
		c.applyLocal(ctx, *prev)
	}

	if err := c.enqueue(ctx, enums.ActionKindUpdate, orderID, nil, payload); err != nil {
		return false, err
	}
	return true, nil
}

// CreateOrder is online-only: new orders are never queued.
func (c *Coordinator) CreateOrder(ctx context.Context, actorID uuid.UUID, order *models.ServiceOrder) (*models.ServiceOrder, error) {
	if !c.monitor.IsOnline() {
		return nil, apperrors.New(apperrors.CodeOffline, "creating orders requires connectivity")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusPending
	}
	order.CreatedBy = actorID

	created, err := c.remote.Create(ctx, order)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "create order")
	}
	c.appendAudit(ctx, created.ID, actorID, enums.AuditActionCreated, "", created.Status, nil)
	c.applyLocal(ctx, *created)
	return created, nil
}

// DeleteOrder is online-only and bypasses the queue entirely.
func (c *Coordinator) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if !c.monitor.IsOnline() {
		return apperrors.New(apperrors.CodeOffline, "deleting orders requires connectivity")
	}
	if err := c.remote.Delete(ctx, orderID); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "delete order")
	}
	if err := c.store.DeleteOrder(ctx, orderID); err != nil {
		c.logg.Error(ctx, "cache delete failed", err)
	}
	c.mu.Lock()
	for i := range c.orders {
		if c.orders[i].ID == orderID {
			c.orders = append(c.orders[:i], c.orders[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// SyncPendingActions drains the queue in enqueue order: write-through each
// action, remove it on success, keep it and continue on failure. After one
// full walk it refetches orders to reconcile with the backend. Returns true
// when every action replayed cleanly.
func (c *Coordinator) SyncPendingActions(ctx context.Context, actorID uuid.UUID, trigger string) (bool, error) {
	if !c.monitor.IsOnline() || actorID == uuid.Nil {
		return true, nil
	}

	c.mu.Lock()
	c.syncing = true
	c.mu.Unlock()
	started := time.Now()
	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.mu.Unlock()
		c.metrics.ObserveDrainDuration(trigger, time.Since(started))
	}()

	actions, err := c.store.Actions(ctx)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeDependency, err, "read pending actions")
	}

	var successCount, failureCount int
	var drainErr error
	for _, action := range actions {
		actionCtx := c.logg.WithActionID(c.logg.WithOrderID(ctx, action.OrderID.String()), action.ID.String())
		if err := c.replay(actionCtx, actorID, action); err != nil {
			c.logg.Error(actionCtx, "pending action replay failed", err)
			c.metrics.IncReplayFailure(string(action.Kind))
			drainErr = multierr.Append(drainErr, err)
			failureCount++
			continue
		}
		if err := c.store.RemoveAction(actionCtx, action.ID); err != nil {
			c.logg.Error(actionCtx, "remove replayed action failed", err)
		}
		c.metrics.IncReplaySuccess(string(action.Kind))
		successCount++
	}

	c.recomputePending(ctx)
	if successCount > 0 {
		c.logg.Info(ctx, "pending actions synced")
	}
	if failureCount > 0 {
		c.logg.Warn(ctx, "some pending actions failed to sync")
	}

	if _, err := c.FetchOrders(ctx); err != nil {
		c.logg.Error(ctx, "post-drain refetch failed", err)
	}
	return failureCount == 0, drainErr
}

func (c *Coordinator) replay(ctx context.Context, actorID uuid.UUID, action models.PendingAction) error {
	switch action.Kind {
	case enums.ActionKindStart:
		payload, err := decodeStartPayload(action.Payload)
		if err != nil {
			return err
		}
		if _, err := c.remote.UpdateFields(ctx, action.OrderID, payload.fields()); err != nil {
			return err
		}
		c.appendAudit(ctx, action.OrderID, actorID, enums.AuditActionStarted,
			enums.OrderStatusPending, enums.OrderStatusInProgress, action.Notes)
		return nil
	case enums.ActionKindFinish:
		payload, err := decodeFinishPayload(action.Payload)
		if err != nil {
			return err
		}
		if _, err := c.remote.UpdateFields(ctx, action.OrderID, payload.fields()); err != nil {
			return err
		}
		c.appendAudit(ctx, action.OrderID, actorID, enums.AuditActionFinished,
			enums.OrderStatusInProgress, enums.OrderStatusCompleted, action.Notes)
		return nil
	case enums.ActionKindUpdate:
		payload, err := decodeUpdatePayload(action.Payload)
		if err != nil {
			return err
		}
		_, err = c.remote.UpdateFields(ctx, action.OrderID, payload.fields())
		return err
	default:
		return apperrors.New(apperrors.CodeInternal, "unknown pending action kind "+string(action.Kind))
	}
}

// Run reacts to offline-to-online transitions: exactly one drain per
// transition, gated by the monitor's one-shot marker.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.monitor.Recovered():
			if !c.monitor.WasOffline() || !c.monitor.IsOnline() {
				continue
			}
			if _, err := c.SyncPendingActions(ctx, c.agentActor, TriggerReconnect); err != nil {
				c.logg.Error(ctx, "reconnection drain finished with failures", err)
			}
			c.monitor.ClearWasOffline()
		}
	}
}

// Status reports the coordinator's current sync state.
func (c *Coordinator) Status() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SyncState{
		Online:       c.monitor.IsOnline(),
		Syncing:      c.syncing,
		PendingCount: c.pendingCount,
		LastSyncAt:   c.lastSyncAt,
	}
}

func (c *Coordinator) currentOrder(orderID uuid.UUID) (*models.ServiceOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if c.orders[i].ID == orderID {
			order := c.orders[i]
			return &order, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
}

// applyLocal writes an order into the in-memory list and, best-effort, into
// the cache. Cache write failures are logged and swallowed so the optimistic
// state stays visible for the rest of the session.
func (c *Coordinator) applyLocal(ctx context.Context, order models.ServiceOrder) {
	c.mu.Lock()
	replaced := false
	for i := range c.orders {
		if c.orders[i].ID == order.ID {
			c.orders[i] = order
			replaced = true
			break
		}
	}
	if !replaced {
		c.orders = append([]models.ServiceOrder{order}, c.orders...)
	}
	c.mu.Unlock()

	if err := c.store.UpsertOrder(ctx, &order); err != nil {
		c.logg.Error(ctx, "cache write failed", err)
	}
}

func (c *Coordinator) enqueue(ctx context.Context, kind enums.ActionKind, orderID uuid.UUID, notes *string, payload any) error {
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	action := models.PendingAction{
		ID:      uuid.New(),
		Kind:    kind,
		OrderID: orderID,
		Payload: raw,
		Notes:   notes,
	}
	if err := c.store.AppendAction(ctx, &action); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "enqueue pending action")
	}
	c.recomputePending(ctx)
	return nil
}

// appendAudit records a transition on the backend. Absent actor identity
// skips the write; audit failures never fail the primary mutation.
func (c *Coordinator) appendAudit(ctx context.Context, orderID, actorID uuid.UUID, action enums.AuditAction, oldStatus, newStatus enums.OrderStatus, notes *string) {
	if actorID == uuid.Nil {
		return
	}
	audit := models.OrderAudit{
		ServiceOrderID: orderID,
		UserID:         actorID,
		Action:         action,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		Notes:          notes,
	}
	if err := c.remote.AppendAudit(ctx, &audit); err != nil {
		c.logg.Error(ctx, "audit append failed", err)
	}
}

func (c *Coordinator) recomputePending(ctx context.Context) {
	count, err := c.store.ActionCount(ctx)
	if err != nil {
		c.logg.Error(ctx, "pending action count failed", err)
		return
	}
	c.mu.Lock()
	c.pendingCount = count
	c.mu.Unlock()
	c.metrics.SetPendingDepth(int(count))
}

func (c *Coordinator) acquireInFlight(orderID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[orderID]; busy {
		return apperrors.New(apperrors.CodeConflict, "another transition for this order is in flight")
	}
	c.inFlight[orderID] = struct{}{}
	return nil
}

func (c *Coordinator) releaseInFlight(orderID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, orderID)
}
