// Package cli implements the interactive commands of the taskwire client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskwire/taskwire/internal/client/auth"
	"github.com/taskwire/taskwire/internal/client/iocli"
	"github.com/taskwire/taskwire/internal/client/router"
	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/client/sync"
	"github.com/taskwire/taskwire/internal/client/transport"
)

type Cli struct {
	io      iocli.IO
	auth    *auth.Service
	coord   *sync.Coordinator
	session *transport.Session
	router  *router.Router
	logger  *slog.Logger
}

func New(
	io iocli.IO,
	authService *auth.Service,
	coord *sync.Coordinator,
	session *transport.Session,
	rtr *router.Router,
	logger *slog.Logger,
) *Cli {
	return &Cli{
		io:      io,
		auth:    authService,
		coord:   coord,
		session: session,
		router:  rtr,
		logger:  logger,
	}
}

// Run выполняет одну команду. Ошибка возвращается наверх, main решает про
// exit code.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "add":
		return c.runAdd(ctx, args)
	case "list":
		return c.runList(ctx)
	case "done":
		return c.runDone(ctx, args)
	case "edit":
		return c.runEdit(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "sync":
		return c.runSync(ctx)
	case "resolve":
		return c.runResolve(ctx, args)
	case "watch":
		return c.runWatch(ctx)
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage выводит краткую справку
func (c *Cli) PrintUsage() {
	c.io.Println("Usage: taskwire <command> [arguments]")
	c.io.Println("")
	c.io.Println("Commands:")
	c.io.Println("  register            create an account")
	c.io.Println("  login               sign in")
	c.io.Println("  logout              drop the local session")
	c.io.Println("  status              connection, queue and session info")
	c.io.Println("  add <title>         add a todo")
	c.io.Println("  list                show the todo list")
	c.io.Println("  done <id>           toggle completion")
	c.io.Println("  edit <id> <title>   rename a todo")
	c.io.Println("  delete <id>         delete a todo")
	c.io.Println("  sync                push queued changes, pull fresh state")
	c.io.Println("  resolve <id> <keep-local|take-remote>")
	c.io.Println("                      settle a conflicted todo")
	c.io.Println("  watch               live session: todos, presence, cursors")
}

// ensureAuth загружает сессию и прокидывает credentials в координатор
func (c *Cli) ensureAuth(ctx context.Context) (*storage.AuthData, error) {
	authData, err := c.auth.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, fmt.Errorf("not authenticated, run 'taskwire login' first")
		}
		if errors.Is(err, auth.ErrSessionExpired) {
			return nil, fmt.Errorf("session expired, run 'taskwire login' again")
		}
		return nil, err
	}

	c.coord.SetCredentials(authData.UserID, authData.AccessToken)
	return authData, nil
}
