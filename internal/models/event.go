package models

// EventType классифицирует входящее удалённое событие
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventToggled EventType = "toggled"
)

// Valid reports whether the event type is one of the known types.
// Unknown types are treated as malformed and dropped by the reconciler.
func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted, EventToggled:
		return true
	default:
		return false
	}
}

// RemoteEvent представляет мутацию, пришедшую от другого клиента.
// Transient: потребляется reconciler-ом ровно один раз, никогда не
// сохраняется на диск.
type RemoteEvent struct {
	Type         EventType `json:"type"`
	Item         Item      `json:"item"`
	OriginUserID string    `json:"origin_user_id"`
	Timestamp    int64     `json:"timestamp"`
}

// PresenceStatus перечисляет состояния присутствия пользователя
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

// PresenceEntry describes one user in the shared session. Ephemeral,
// rebuilt from the periodic users:list broadcast plus join/leave events.
type PresenceEntry struct {
	UserID   string         `json:"user_id"`
	Name     string         `json:"name"`
	Status   PresenceStatus `json:"status"`
	LastSeen int64          `json:"last_seen"`
}

// ConnectionState отражает состояние транспортной сессии.
// Владеет им исключительно transport.Session, остальные компоненты
// только читают.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateDegraded // live push replaced by periodic polling probe
)

// String returns a human-readable state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded (polling)"
	default:
		return "unknown"
	}
}
