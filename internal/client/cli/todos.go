package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskwire/taskwire/internal/models"
)

// runAdd добавляет задачу. Запись применяется локально сразу; отправка на
// сервер best-effort.
func (c *Cli) runAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: taskwire add <title>")
	}
	title := strings.Join(args, " ")

	if _, err := c.ensureAuth(ctx); err != nil {
		return err
	}

	item, err := c.coord.Create(ctx, title)
	if err != nil {
		return err
	}

	c.io.Printf("Added #%d: %s\n", item.ID, item.Title)
	c.pushPending(ctx)
	return nil
}

// runList печатает локальный snapshot. Маркеры: '*' pending, '!' conflict.
func (c *Cli) runList(ctx context.Context) error {
	items, err := c.coord.Snapshot(ctx)
	if err != nil {
		return err
	}

	count := 0
	for item := range items {
		count++

		box := " "
		if item.Completed {
			box = "x"
		}

		marker := " "
		switch item.SyncStatus {
		case models.StatusPending:
			marker = "*"
		case models.StatusConflict:
			marker = "!"
		}

		c.io.Printf("[%s]%s #%d %s\n", box, marker, item.ID, item.Title)
		if item.SyncStatus == models.StatusConflict && item.Remote != nil {
			c.io.Printf("      remote: %q completed=%v\n", item.Remote.Title, item.Remote.Completed)
		}
	}

	if count == 0 {
		c.io.Println("No todos yet, run 'taskwire add <title>'")
	}
	return nil
}

func (c *Cli) runDone(ctx context.Context, args []string) error {
	id, err := parseID(args, "done")
	if err != nil {
		return err
	}

	if _, err := c.ensureAuth(ctx); err != nil {
		return err
	}

	if err := c.coord.Toggle(ctx, id); err != nil {
		return err
	}

	c.io.Printf("Toggled #%d\n", id)
	c.pushPending(ctx)
	return nil
}

func (c *Cli) runEdit(ctx context.Context, args []string) error {
	id, err := parseID(args, "edit")
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: taskwire edit <id> <title>")
	}
	title := strings.Join(args[1:], " ")

	if _, err := c.ensureAuth(ctx); err != nil {
		return err
	}

	if err := c.coord.Update(ctx, id, models.Patch{Title: &title}); err != nil {
		return err
	}

	c.io.Printf("Updated #%d\n", id)
	c.pushPending(ctx)
	return nil
}

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete")
	if err != nil {
		return err
	}

	if _, err := c.ensureAuth(ctx); err != nil {
		return err
	}

	if err := c.coord.Delete(ctx, id); err != nil {
		return err
	}

	c.io.Printf("Deleted #%d\n", id)
	c.pushPending(ctx)
	return nil
}

// runSync вручную гонит очередь и подтягивает свежий snapshot
func (c *Cli) runSync(ctx context.Context) error {
	if _, err := c.ensureAuth(ctx); err != nil {
		return err
	}

	before, err := c.coord.PendingCount(ctx)
	if err != nil {
		return err
	}

	if err := c.coord.RetryPending(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	after, err := c.coord.PendingCount(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Synced: %d pushed, %d still queued\n", before-after, after)
	return nil
}

// runResolve разрешает конфликт: keep-local переотправляет локальную версию,
// take-remote принимает удалённую и выбрасывает свои queued операции.
func (c *Cli) runResolve(ctx context.Context, args []string) error {
	id, err := parseID(args, "resolve")
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: taskwire resolve <id> <keep-local|take-remote>")
	}

	if _, err := c.ensureAuth(ctx); err != nil {
		return err
	}

	switch args[1] {
	case "keep-local":
		if err := c.coord.RetryPending(ctx); err != nil {
			return fmt.Errorf("failed to push local version: %w", err)
		}
		c.io.Printf("Kept local version of #%d\n", id)
		return nil

	case "take-remote":
		if err := c.coord.Abandon(ctx, id); err != nil {
			return err
		}
		c.io.Printf("Adopted remote version of #%d\n", id)
		return nil

	default:
		return fmt.Errorf("unknown resolution %q, expected keep-local or take-remote", args[1])
	}
}

// pushPending пытается протолкнуть очередь сразу после мутации. Ошибка не
// фатальна: операция уже durable в очереди и уйдет при следующем sync.
func (c *Cli) pushPending(ctx context.Context) {
	if err := c.coord.RetryPending(ctx); err != nil {
		c.logger.Debug("Immediate push failed", "error", err)
		c.io.Println("Server unreachable, change queued locally")
	}
}

func parseID(args []string, command string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: taskwire %s <id> ...", command)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid todo id %q", args[0])
	}
	return id, nil
}
