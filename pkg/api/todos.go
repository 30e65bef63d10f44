package api

// Event names used on the websocket connection.
// Outbound (client -> server) and inbound (server -> client) directions
// share the envelope format; the name selects the payload shape.
const (
	EventTodoChange  = "todo:change"
	EventTodoCreated = "todo:created"
	EventTodoUpdated = "todo:updated"
	EventTodoDeleted = "todo:deleted"

	EventCursorMove  = "cursor:move"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"

	EventRoomJoin  = "room:join"
	EventRoomLeave = "room:leave"

	EventUserJoined = "user:joined"
	EventUserLeft   = "user:left"
	EventUsersList  = "users:list"
)

// Todo представляет одну задачу в wire-формате
type Todo struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Completed    bool   `json:"completed"`
	OwnerID      string `json:"owner_id"`
	LastModified int64  `json:"last_modified"` // milliseconds since epoch
}

// ChangeEvent carries a single todo mutation over the wire.
// Type is one of "created", "updated", "deleted".
type ChangeEvent struct {
	Type      string `json:"type"`
	Todo      Todo   `json:"todo"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

// CursorEvent carries a live cursor position of another user.
type CursorEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TodoID   int64  `json:"todoId,omitempty"`
}

// TypingEvent signals that a user started or stopped typing.
type TypingEvent struct {
	TodoID int64 `json:"todoId,omitempty"`
}

// RoomEvent joins or leaves a shared editing room.
type RoomEvent struct {
	RoomID string `json:"roomId"`
}

// PresenceEvent describes one connected user.
// Status is one of "online", "away", "offline".
type PresenceEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	LastSeen int64  `json:"lastSeen"`
	Status   string `json:"status"`
}

// ErrorResponse представляет ошибку от сервера
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
