package cli

import (
	"context"
	"errors"
	"time"

	"github.com/taskwire/taskwire/internal/client/auth"
	"github.com/taskwire/taskwire/internal/models"
)

// runStatus печатает состояние сессии, соединения и очереди. Работает и без
// логина: локальное состояние доступно всегда.
func (c *Cli) runStatus(ctx context.Context) error {
	switch authData, err := c.auth.CurrentSession(ctx); {
	case err == nil:
		c.io.Printf("Session:    %s (expires %s)\n",
			authData.Username,
			time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))
	case errors.Is(err, auth.ErrSessionExpired):
		c.io.Println("Session:    expired, run 'taskwire login'")
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.io.Println("Session:    not logged in")
	default:
		return err
	}

	c.io.Printf("Connection: %s\n", c.coord.State().String())

	pending, err := c.coord.PendingCount(ctx)
	if err != nil {
		return err
	}
	c.io.Printf("Queued:     %d operation(s)\n", pending)

	lastSync, err := c.coord.LastSyncAt(ctx)
	if err != nil {
		return err
	}
	if lastSync == 0 {
		c.io.Println("Last sync:  never")
	} else {
		c.io.Printf("Last sync:  %s\n", time.UnixMilli(lastSync).Format(time.RFC3339))
	}

	items, err := c.coord.Snapshot(ctx)
	if err != nil {
		return err
	}
	conflicts := 0
	for item := range items {
		if item.SyncStatus == models.StatusConflict {
			conflicts++
		}
	}
	if conflicts > 0 {
		c.io.Printf("Conflicts:  %d, run 'taskwire resolve <id> <keep-local|take-remote>'\n", conflicts)
	}
	return nil
}
