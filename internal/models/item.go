package models

// SyncStatus отражает состояние записи относительно удалённого хранилища.
// Ровно один статус действует в каждый момент времени; Conflict выставляет
// только reconciler, никогда UI.
type SyncStatus int

const (
	StatusSynced SyncStatus = iota
	StatusPending
	StatusConflict
)

// String returns a human-readable status name.
func (s SyncStatus) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusPending:
		return "pending"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Item представляет одну задачу в локальном snapshot store.
type Item struct {
	ID           int64          `json:"id"`            // client-assigned, derived from client+timestamp
	Title        string         `json:"title"`         // Title текст задачи
	Completed    bool           `json:"completed"`     // Completed флаг выполнения
	OwnerID      string         `json:"owner_id"`      // OwnerID идентификатор владельца
	LastModified int64          `json:"last_modified"` // milliseconds since epoch, comparable across clients
	SyncStatus   SyncStatus     `json:"sync_status"`
	Remote       *RemoteVersion `json:"remote,omitempty"` // retained remote copy while SyncStatus == Conflict
}

// RemoteVersion holds the remote snapshot of a conflicting item so the UI
// can surface both sides until the pending operation resolves.
type RemoteVersion struct {
	Title        string `json:"title"`
	Completed    bool   `json:"completed"`
	LastModified int64  `json:"last_modified"`
}

// Clone создает глубокую копию записи
func (i *Item) Clone() *Item {
	clone := *i
	if i.Remote != nil {
		remote := *i.Remote
		clone.Remote = &remote
	}
	return &clone
}
