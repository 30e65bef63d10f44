package cli

import (
	"context"
	"encoding/json"

	"github.com/taskwire/taskwire/internal/client/router"
	"github.com/taskwire/taskwire/internal/models"
	"github.com/taskwire/taskwire/pkg/api"
)

// runWatch держит живую сессию до Ctrl+C: печатает удалённые мутации,
// присутствие и курсоры других пользователей.
func (c *Cli) runWatch(ctx context.Context) error {
	authData, err := c.ensureAuth(ctx)
	if err != nil {
		return err
	}

	roster := router.NewPresenceRoster()
	cursors := router.NewCursorTracker(router.DefaultCursorTTL)
	go cursors.Run(ctx)

	subs := []*router.Subscription{
		c.router.Subscribe(api.EventUserJoined, func(data json.RawMessage) {
			var ev api.PresenceEvent
			if json.Unmarshal(data, &ev) != nil {
				return
			}
			roster.Join(ev)
			c.io.Printf("-- %s joined\n", ev.UserName)
		}),
		c.router.Subscribe(api.EventUserLeft, func(data json.RawMessage) {
			var ev api.PresenceEvent
			if json.Unmarshal(data, &ev) != nil {
				return
			}
			roster.Leave(ev.UserID)
			c.io.Printf("-- %s left\n", ev.UserName)
		}),
		c.router.Subscribe(api.EventUsersList, func(data json.RawMessage) {
			var evs []api.PresenceEvent
			if json.Unmarshal(data, &evs) != nil {
				return
			}
			roster.Replace(evs)
			c.io.Printf("-- %d user(s) online\n", len(evs))
		}),
		c.router.Subscribe(api.EventCursorMove, func(data json.RawMessage) {
			var ev api.CursorEvent
			if json.Unmarshal(data, &ev) != nil {
				return
			}
			cursors.Track(ev)
			// only cursors moved within the TTL are live
			for _, cur := range cursors.Active() {
				c.io.Printf("-- %s cursor at (%d,%d)\n", cur.UserName, cur.X, cur.Y)
			}
		}),
		c.router.Subscribe(api.EventTypingStart, func(json.RawMessage) {
			c.io.Println("-- someone is typing...")
		}),
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	updates, cancel := c.coord.ObserveRemoteUpdates()
	defer cancel()

	if err := c.session.Connect(ctx, authData.AccessToken); err != nil {
		return err
	}
	defer c.session.Disconnect()

	c.io.Println("Watching for changes, Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-updates:
			if !ok {
				return nil
			}
			switch ev.Type {
			case models.EventDeleted:
				c.io.Printf("<- #%d deleted by %s\n", ev.Item.ID, ev.OriginUserID)
			default:
				box := " "
				if ev.Item.Completed {
					box = "x"
				}
				c.io.Printf("<- [%s] #%d %s (by %s)\n", box, ev.Item.ID, ev.Item.Title, ev.OriginUserID)
			}
		}
	}
}
