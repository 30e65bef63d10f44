// Package sync implements the client-side sync coordinator: the single entry
// point for local mutations. Every mutation is applied to the local snapshot
// first, durably queued, and pushed to the remote store when the connection
// allows. Inbound remote mutations flow through the reconciler and out to
// observers.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	apiclient "github.com/taskwire/taskwire/internal/client/api"
	"github.com/taskwire/taskwire/internal/client/reconcile"
	"github.com/taskwire/taskwire/internal/client/router"
	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/client/transport"
	"github.com/taskwire/taskwire/internal/clock"
	"github.com/taskwire/taskwire/internal/models"
	"github.com/taskwire/taskwire/pkg/api"
)

// Transport is the slice of the session the coordinator needs: it reads the
// connection state, never drives it.
type Transport interface {
	State() models.ConnectionState
	OnStateChange(fn transport.StateHandler)
}

// Stores groups the client-side persistence the coordinator writes through.
type Stores struct {
	Items storage.SnapshotStore
	Queue storage.OperationQueue
	Meta  storage.MetadataStorage
}

// Coordinator владеет порядком применения мутаций: сначала локальный
// snapshot, затем durable очередь, затем (если соединение есть) отправка.
// Submit никогда не блокируется на сети.
type Coordinator struct {
	apiClient apiclient.ClientAPI
	stores    Stores
	session   Transport
	router    *router.Router
	rec       *reconcile.Reconciler
	clock     *clock.Clock
	ids       *clock.IDGenerator
	logger    *slog.Logger

	// serializes submit and drain so a drain never interleaves with a
	// half-written optimistic update
	mu sync.Mutex

	credMu sync.Mutex
	userID string
	token  string

	subsMu    sync.Mutex
	nextSubID uint64
	subs      map[uint64]chan models.RemoteEvent
}

// New creates a coordinator. Start must be called to wire it to the router
// and session before remote events flow.
func New(
	apiClient apiclient.ClientAPI,
	session Transport,
	rtr *router.Router,
	rec *reconcile.Reconciler,
	stores Stores,
	clk *clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		apiClient: apiClient,
		stores:    stores,
		session:   session,
		router:    rtr,
		rec:       rec,
		clock:     clk,
		ids:       clock.NewIDGenerator(clk),
		logger:    logger,
		subs:      make(map[uint64]chan models.RemoteEvent),
	}
}

// SetCredentials installs the identity used for dispatch and self-echo
// filtering. Mutations submitted without credentials stay queued.
func (c *Coordinator) SetCredentials(userID, accessToken string) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	c.userID = userID
	c.token = accessToken
}

func (c *Coordinator) credentials() (string, string) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	return c.userID, c.token
}

// Start subscribes the coordinator to inbound todo events and arranges a
// queue drain on every transition to Connected. It returns immediately.
func (c *Coordinator) Start(ctx context.Context) {
	for _, event := range []string{api.EventTodoCreated, api.EventTodoUpdated, api.EventTodoDeleted} {
		c.router.Subscribe(event, func(data json.RawMessage) {
			c.handleInbound(ctx, data)
		})
	}

	c.session.OnStateChange(func(state models.ConnectionState) {
		if state != models.StateConnected {
			return
		}
		go func() {
			if err := c.OnConnectivityRestored(ctx); err != nil {
				c.logger.Warn("Post-reconnect drain failed", "error", err)
			}
		}()
	})
}

// Create submits a new todo with a client-assigned id and returns the
// optimistic local copy.
func (c *Coordinator) Create(ctx context.Context, title string) (*models.Item, error) {
	op := &models.Operation{
		OpID:      clock.NewOpID(),
		Kind:      models.OpCreate,
		TargetID:  c.ids.NextItemID(),
		Payload:   models.Patch{Title: &title},
		CreatedAt: c.clock.Now(),
	}
	if err := c.submit(ctx, op); err != nil {
		return nil, err
	}
	return c.stores.Items.GetItem(ctx, op.TargetID)
}

// Update submits a partial edit of an existing todo.
func (c *Coordinator) Update(ctx context.Context, id int64, patch models.Patch) error {
	op := &models.Operation{
		OpID:      clock.NewOpID(),
		Kind:      models.OpUpdate,
		TargetID:  id,
		Payload:   patch,
		CreatedAt: c.clock.Now(),
	}
	return c.submit(ctx, op)
}

// Toggle flips the completion flag of an existing todo.
func (c *Coordinator) Toggle(ctx context.Context, id int64) error {
	item, err := c.stores.Items.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to toggle: %w", err)
	}
	flipped := !item.Completed
	op := &models.Operation{
		OpID:      clock.NewOpID(),
		Kind:      models.OpToggle,
		TargetID:  id,
		Payload:   models.Patch{Completed: &flipped},
		CreatedAt: c.clock.Now(),
	}
	return c.submit(ctx, op)
}

// Delete submits a todo removal. The item disappears from the local snapshot
// immediately.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	op := &models.Operation{
		OpID:      clock.NewOpID(),
		Kind:      models.OpDelete,
		TargetID:  id,
		CreatedAt: c.clock.Now(),
	}
	return c.submit(ctx, op)
}

// submit применяет мутацию оптимистично, durable-кладет ее в очередь и,
// если соединение активно, пытается отправить. Ошибка отправки не всплывает:
// операция остается в очереди и будет повторена при восстановлении связи.
func (c *Coordinator) submit(ctx context.Context, op *models.Operation) error {
	if err := op.Validate(); err != nil {
		return fmt.Errorf("invalid operation: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.applyOptimistic(ctx, op); err != nil {
		return err
	}

	// durable before submit returns: a crash right after this point loses
	// nothing
	if err := c.stores.Queue.Enqueue(ctx, op); err != nil {
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}

	if c.session.State() == models.StateConnected {
		if err := c.dispatch(ctx, op); err != nil {
			c.logger.Warn("Dispatch failed, operation stays queued",
				"op_id", op.OpID,
				"kind", op.Kind.String(),
				"error", err)
		}
	}
	return nil
}

// applyOptimistic mutates the local snapshot ahead of remote confirmation.
func (c *Coordinator) applyOptimistic(ctx context.Context, op *models.Operation) error {
	userID, _ := c.credentials()

	switch op.Kind {
	case models.OpCreate:
		item := &models.Item{
			ID:           op.TargetID,
			OwnerID:      userID,
			LastModified: op.CreatedAt,
			SyncStatus:   models.StatusPending,
		}
		op.Payload.ApplyTo(item)
		return c.stores.Items.SaveItem(ctx, item)

	case models.OpUpdate, models.OpToggle:
		item, err := c.stores.Items.GetItem(ctx, op.TargetID)
		if err != nil {
			return fmt.Errorf("failed to load item %d: %w", op.TargetID, err)
		}
		op.Payload.ApplyTo(item)
		item.LastModified = op.CreatedAt
		item.SyncStatus = models.StatusPending
		return c.stores.Items.SaveItem(ctx, item)

	case models.OpDelete:
		return c.stores.Items.DeleteItem(ctx, op.TargetID)

	default:
		return fmt.Errorf("unknown operation kind %d", int(op.Kind))
	}
}

// dispatch sends one queued operation to the remote store. On success the
// operation retires, the item turns Synced, and the mutation is broadcast to
// the other clients. On failure only the attempt counter moves.
func (c *Coordinator) dispatch(ctx context.Context, op *models.Operation) error {
	if err := c.send(ctx, op); err != nil {
		if ierr := c.stores.Queue.IncrementAttempts(ctx, op.OpID); ierr != nil {
			c.logger.Error("Failed to record dispatch attempt", "op_id", op.OpID, "error", ierr)
		}
		return err
	}

	if err := c.stores.Queue.DequeueConfirmed(ctx, op.OpID); err != nil && !errors.Is(err, storage.ErrOperationNotFound) {
		return fmt.Errorf("failed to retire operation: %w", err)
	}

	return c.confirm(ctx, op)
}

// send translates the operation into its REST call.
func (c *Coordinator) send(ctx context.Context, op *models.Operation) error {
	_, token := c.credentials()

	switch op.Kind {
	case models.OpDelete:
		return c.apiClient.DeleteTodo(ctx, token, op.TargetID)

	case models.OpCreate, models.OpUpdate, models.OpToggle:
		item, err := c.stores.Items.GetItem(ctx, op.TargetID)
		if errors.Is(err, storage.ErrItemNotFound) {
			// the item was deleted after the op was queued; nothing to send
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load item %d: %w", op.TargetID, err)
		}

		todo := todoFromItem(item)
		if op.Kind == models.OpCreate {
			_, err = c.apiClient.CreateTodo(ctx, token, todo)
		} else {
			_, err = c.apiClient.UpdateTodo(ctx, token, todo)
		}
		return err

	default:
		return fmt.Errorf("unknown operation kind %d", int(op.Kind))
	}
}

// confirm marks the item Synced and broadcasts the confirmed mutation. A
// confirmed write on a conflicted item means the local value stands: the
// conflict flag clears and the value is rebroadcast so the losers converge.
func (c *Coordinator) confirm(ctx context.Context, op *models.Operation) error {
	userID, _ := c.credentials()

	evType := models.EventUpdated
	switch op.Kind {
	case models.OpCreate:
		evType = models.EventCreated
	case models.OpDelete:
		evType = models.EventDeleted
	}

	todo := api.Todo{ID: op.TargetID}
	ts := c.clock.Now()

	if op.Kind != models.OpDelete {
		item, err := c.stores.Items.GetItem(ctx, op.TargetID)
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load item %d: %w", op.TargetID, err)
		}

		if item.SyncStatus == models.StatusConflict {
			c.logger.Info("Conflict resolved in favour of local edit", "target_id", item.ID)
		}
		item.SyncStatus = models.StatusSynced
		item.Remote = nil
		if err := c.stores.Items.SaveItem(ctx, item); err != nil {
			return fmt.Errorf("failed to mark item synced: %w", err)
		}

		todo = todoFromItem(item)
		ts = item.LastModified
	}

	change := api.ChangeEvent{
		Type:      string(evType),
		Todo:      todo,
		UserID:    userID,
		Timestamp: ts,
	}
	if err := c.router.Publish(api.EventTodoChange, change); err != nil {
		c.logger.Warn("Failed to broadcast confirmed mutation",
			"target_id", op.TargetID,
			"error", err)
	}
	return nil
}

// OnConnectivityRestored drains the queue in FIFO order, then refreshes the
// snapshot from the remote store so mutations missed while offline arrive
// even before the next live push. A failing operation is skipped, not
// dropped; it stays queued for the next drain.
func (c *Coordinator) OnConnectivityRestored(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ops, err := c.stores.Queue.PeekAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}

	sent := 0
	for _, op := range ops {
		if err := c.dispatch(ctx, op); err != nil {
			c.logger.Warn("Drain dispatch failed, operation stays queued",
				"op_id", op.OpID,
				"kind", op.Kind.String(),
				"error", err)
			continue
		}
		sent++
	}

	if err := c.refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh snapshot: %w", err)
	}

	if err := c.stores.Meta.SaveLastSyncAt(ctx, c.clock.Now()); err != nil {
		return fmt.Errorf("failed to record sync time: %w", err)
	}

	c.logger.Info("Queue drained", "queued", len(ops), "sent", sent)
	return nil
}

// RetryPending is the manual drain trigger. It works in any connection
// state; the attempt simply fails and stays queued when the store is
// unreachable.
func (c *Coordinator) RetryPending(ctx context.Context) error {
	return c.OnConnectivityRestored(ctx)
}

// refresh pulls the full remote collection through the reconciler. Entries
// the snapshot already carries are rejected by the staleness check; the
// reconciler's conflict policy applies to the rest, exactly as for live
// pushes. Synced items absent from the remote list were deleted while this
// client was offline and are removed, so a stay in Degraded(Polling) cannot
// leave ghosts behind.
func (c *Coordinator) refresh(ctx context.Context) error {
	userID, token := c.credentials()

	todos, err := c.apiClient.ListTodos(ctx, token)
	if err != nil {
		return err
	}

	remote := make(map[int64]struct{}, len(todos))
	for _, todo := range todos {
		remote[todo.ID] = struct{}{}

		ev := models.RemoteEvent{
			Type:      models.EventUpdated,
			Item:      itemFromTodo(todo),
			Timestamp: todo.LastModified,
		}
		applied, err := c.rec.Apply(ctx, userID, ev)
		if err != nil {
			c.logger.Warn("Refresh entry failed", "target_id", todo.ID, "error", err)
			continue
		}
		if applied {
			c.notify(ev)
		}
	}

	return c.pruneDeleted(ctx, remote)
}

// pruneDeleted drops local items the remote store no longer has. Only Synced
// items with no queued operation qualify: a Pending or Conflict item is an
// unconfirmed local edit, not a missed remote delete.
func (c *Coordinator) pruneDeleted(ctx context.Context, remote map[int64]struct{}) error {
	items, err := c.stores.Items.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	for _, item := range items {
		if _, ok := remote[item.ID]; ok {
			continue
		}
		if item.SyncStatus != models.StatusSynced {
			continue
		}
		pending, err := c.stores.Queue.HasPendingFor(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("failed to check pending operations: %w", err)
		}
		if pending {
			continue
		}

		if err := c.stores.Items.DeleteItem(ctx, item.ID); err != nil {
			c.logger.Warn("Failed to remove remotely deleted item",
				"target_id", item.ID,
				"error", err)
			continue
		}

		c.logger.Info("Removed item deleted while offline", "target_id", item.ID)
		c.notify(models.RemoteEvent{
			Type:      models.EventDeleted,
			Item:      *item,
			Timestamp: c.clock.Now(),
		})
	}
	return nil
}

// handleInbound parses one live remote mutation and runs it through the
// reconciler. Observers hear about it only if the snapshot actually changed.
func (c *Coordinator) handleInbound(ctx context.Context, data json.RawMessage) {
	var change api.ChangeEvent
	if err := json.Unmarshal(data, &change); err != nil {
		c.logger.Warn("Dropping malformed change event", "error", err)
		return
	}

	ev := models.RemoteEvent{
		Type:         models.EventType(change.Type),
		Item:         itemFromTodo(change.Todo),
		OriginUserID: change.UserID,
		Timestamp:    change.Timestamp,
	}

	userID, _ := c.credentials()
	applied, err := c.rec.Apply(ctx, userID, ev)
	if err != nil {
		c.logger.Error("Failed to reconcile remote event",
			"target_id", ev.Item.ID,
			"error", err)
		return
	}
	if applied {
		c.notify(ev)
	}
}

// Abandon resolves a conflicted item in favour of the remote value: queued
// operations for it are dropped and the retained remote snapshot is adopted.
func (c *Coordinator) Abandon(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.stores.Queue.RemoveForTarget(ctx, id); err != nil {
		return fmt.Errorf("failed to drop queued operations: %w", err)
	}

	item, err := c.stores.Items.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load item %d: %w", id, err)
	}

	if item.Remote != nil {
		item.Title = item.Remote.Title
		item.Completed = item.Remote.Completed
		item.LastModified = item.Remote.LastModified
	}
	item.SyncStatus = models.StatusSynced
	item.Remote = nil

	if err := c.stores.Items.SaveItem(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// Snapshot returns an ordered, restartable iterator over the local view of
// the collection. The sequence is a point-in-time copy; iterating it twice
// yields the same items.
func (c *Coordinator) Snapshot(ctx context.Context) (iter.Seq[models.Item], error) {
	items, err := c.stores.Items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return func(yield func(models.Item) bool) {
		for _, item := range items {
			if !yield(*item) {
				return
			}
		}
	}, nil
}

// PendingCount returns the number of queued, unconfirmed operations.
func (c *Coordinator) PendingCount(ctx context.Context) (int, error) {
	return c.stores.Queue.Size(ctx)
}

// LastSyncAt returns the timestamp (ms) of the last successful drain, 0 if
// none yet.
func (c *Coordinator) LastSyncAt(ctx context.Context) (int64, error) {
	return c.stores.Meta.GetLastSyncAt(ctx)
}

// State returns the current connection state.
func (c *Coordinator) State() models.ConnectionState {
	return c.session.State()
}

// ObserveRemoteUpdates returns a channel carrying every remote mutation that
// changed the snapshot, and a cancel func that closes it. Slow consumers
// lose events rather than stall the reconciler.
func (c *Coordinator) ObserveRemoteUpdates() (<-chan models.RemoteEvent, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	ch := make(chan models.RemoteEvent, 16)
	c.subs[id] = ch

	cancel := func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Coordinator) notify(ev models.RemoteEvent) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug("Dropping remote update for slow observer",
				"target_id", ev.Item.ID)
		}
	}
}

func todoFromItem(item *models.Item) api.Todo {
	return api.Todo{
		ID:           item.ID,
		Title:        item.Title,
		Completed:    item.Completed,
		OwnerID:      item.OwnerID,
		LastModified: item.LastModified,
	}
}

func itemFromTodo(todo api.Todo) models.Item {
	return models.Item{
		ID:           todo.ID,
		Title:        todo.Title,
		Completed:    todo.Completed,
		OwnerID:      todo.OwnerID,
		LastModified: todo.LastModified,
	}
}
