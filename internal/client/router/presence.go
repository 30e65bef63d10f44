package router

import (
	"sync"

	"github.com/taskwire/taskwire/internal/models"
	"github.com/taskwire/taskwire/pkg/api"
)

// PresenceRoster mirrors the set of users currently in the shared session.
// It is rebuilt wholesale from each users:list broadcast and patched by
// incremental join/leave events. Never persisted.
type PresenceRoster struct {
	mu    sync.Mutex
	users map[string]models.PresenceEntry
}

// NewPresenceRoster creates an empty roster.
func NewPresenceRoster() *PresenceRoster {
	return &PresenceRoster{users: make(map[string]models.PresenceEntry)}
}

// Replace rebuilds the roster from a full users:list broadcast.
func (p *PresenceRoster) Replace(entries []api.PresenceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.users = make(map[string]models.PresenceEntry, len(entries))
	for _, e := range entries {
		p.users[e.UserID] = presenceFromWire(e)
	}
}

// Join records an incremental user:joined event.
func (p *PresenceRoster) Join(e api.PresenceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[e.UserID] = presenceFromWire(e)
}

// Leave records an incremental user:left event.
func (p *PresenceRoster) Leave(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, userID)
}

// List returns the current roster.
func (p *PresenceRoster) List() []models.PresenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := make([]models.PresenceEntry, 0, len(p.users))
	for _, u := range p.users {
		list = append(list, u)
	}
	return list
}

func presenceFromWire(e api.PresenceEvent) models.PresenceEntry {
	status := models.PresenceStatus(e.Status)
	switch status {
	case models.PresenceOnline, models.PresenceAway, models.PresenceOffline:
	default:
		status = models.PresenceOnline
	}
	return models.PresenceEntry{
		UserID:   e.UserID,
		Name:     e.UserName,
		Status:   status,
		LastSeen: e.LastSeen,
	}
}
