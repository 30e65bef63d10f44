// Package hub owns the websocket side of the server: one goroutine pair per
// connected client, presence bookkeeping, and fan-out of todo mutations,
// cursor positions and typing signals to everyone but their origin.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskwire/taskwire/internal/server/handlers"
	"github.com/taskwire/taskwire/pkg/api"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// outbound buffer per client; a client that cannot drain it is dropped
	sendBuffer = 64
)

// client представляет одно websocket соединение
type client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   string
	username string
	joinedAt int64

	// sendMu guards send against the close in unregister: broadcasts run on
	// handler and readPump goroutines, a send racing the close would panic
	sendMu sync.Mutex
	closed bool
	send   chan *api.Envelope
}

// trySend queues one envelope unless the client is gone. Reports false only
// when the buffer is full: that client is too slow and should be dropped.
func (c *client) trySend(env *api.Envelope) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// Hub keeps the set of connected clients and routes events between them.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// локальный dev-сервер, same-origin политика не применяется
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeWS обрабатывает GET /api/v1/ws. Запрос уже прошел AuthMiddleware,
// identity берется из контекста.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, _ := handlers.GetUsername(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:      h,
		conn:     conn,
		send:     make(chan *api.Envelope, sendBuffer),
		userID:   userID,
		username: username,
		joinedAt: time.Now().UnixMilli(),
	}

	h.register(c)

	go c.writePump()
	go c.readPump()
}

// BroadcastChange fans a confirmed todo mutation out to every client except
// its origin user.
func (h *Hub) BroadcastChange(change api.ChangeEvent, excludeUserID string) {
	event := api.EventTodoUpdated
	switch change.Type {
	case "created":
		event = api.EventTodoCreated
	case "deleted":
		event = api.EventTodoDeleted
	}

	h.broadcast(event, change, excludeUserID)
}

// register adds the client, announces it and refreshes everyone's roster.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client connected",
		"user_id", c.userID,
		"username", c.username,
		"clients", count)

	h.broadcast(api.EventUserJoined, c.presence(), c.userID)
	h.broadcastRoster()
}

// unregister drops the client and tells the others.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	c.sendMu.Lock()
	c.closed = true
	close(c.send)
	c.sendMu.Unlock()

	h.logger.Info("Client disconnected",
		"user_id", c.userID,
		"username", c.username,
		"clients", count)

	h.broadcast(api.EventUserLeft, c.presence(), c.userID)
	h.broadcastRoster()
}

// broadcast queues one event for every client except excludeUserID. A client
// with a full buffer is disconnected rather than allowed to stall the rest.
func (h *Hub) broadcast(event string, payload any, excludeUserID string) {
	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if excludeUserID != "" && c.userID == excludeUserID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if !c.trySend(env) {
			h.logger.Warn("Dropping slow client", "user_id", c.userID)
			go h.unregister(c)
		}
	}
}

// sendRoster queues the current presence list for one client.
func (h *Hub) sendRoster(c *client) {
	h.mu.Lock()
	roster := make([]api.PresenceEvent, 0, len(h.clients))
	for peer := range h.clients {
		roster = append(roster, peer.presence())
	}
	h.mu.Unlock()

	env, err := api.NewEnvelope(api.EventUsersList, roster)
	if err != nil {
		h.logger.Error("Failed to encode roster", "error", err)
		return
	}

	if !c.trySend(env) {
		h.logger.Warn("Dropping slow client", "user_id", c.userID)
		go h.unregister(c)
	}
}

// broadcastRoster sends the full presence list to everyone.
func (h *Hub) broadcastRoster() {
	h.mu.Lock()
	roster := make([]api.PresenceEvent, 0, len(h.clients))
	for c := range h.clients {
		roster = append(roster, c.presence())
	}
	h.mu.Unlock()

	h.broadcast(api.EventUsersList, roster, "")
}

func (c *client) presence() api.PresenceEvent {
	return api.PresenceEvent{
		UserID:   c.userID,
		UserName: c.username,
		LastSeen: time.Now().UnixMilli(),
		Status:   "online",
	}
}

// readPump relays inbound client events until the connection fails.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env api.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("Websocket read failed", "user_id", c.userID, "error", err)
			}
			return
		}

		c.dispatch(env)
	}
}

// dispatch routes one inbound event. Identity fields are always stamped
// server-side: clients cannot impersonate each other.
func (c *client) dispatch(env api.Envelope) {
	switch env.Event {
	case api.EventCursorMove:
		var cursor api.CursorEvent
		if err := json.Unmarshal(env.Data, &cursor); err != nil {
			c.hub.logger.Warn("Dropping malformed cursor event", "user_id", c.userID, "error", err)
			return
		}
		cursor.UserID = c.userID
		cursor.UserName = c.username
		c.hub.broadcast(api.EventCursorMove, cursor, c.userID)

	case api.EventTypingStart, api.EventTypingStop:
		var typing api.TypingEvent
		if err := json.Unmarshal(env.Data, &typing); err != nil {
			c.hub.logger.Warn("Dropping malformed typing event", "user_id", c.userID, "error", err)
			return
		}
		c.hub.broadcast(env.Event, typing, c.userID)

	case api.EventRoomJoin:
		// single shared room: joining means asking for the current roster
		var room api.RoomEvent
		if err := json.Unmarshal(env.Data, &room); err != nil {
			c.hub.logger.Warn("Dropping malformed room event", "user_id", c.userID, "error", err)
			return
		}
		c.hub.sendRoster(c)

	case api.EventRoomLeave:
		// presence survives until the connection drops; nothing to do

	case api.EventTodoChange:
		// a client re-announcing its confirmed write; relay it. REST also
		// broadcasts, duplicates are rejected by receivers' timestamp check.
		var change api.ChangeEvent
		if err := json.Unmarshal(env.Data, &change); err != nil {
			c.hub.logger.Warn("Dropping malformed change event", "user_id", c.userID, "error", err)
			return
		}
		change.UserID = c.userID
		c.hub.BroadcastChange(change, c.userID)

	default:
		c.hub.logger.Debug("Ignoring unknown event", "event", env.Event, "user_id", c.userID)
	}
}

// writePump drains the send channel and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
