// Package transport maintains the single resilient websocket connection to
// the sync server. It owns reconnect/backoff, attaches the bearer credential,
// and demultiplexes inbound frames into named events for the router.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/taskwire/taskwire/internal/models"
	"github.com/taskwire/taskwire/pkg/api"
)

// ErrNoCredential is returned by Connect when no bearer credential is given.
// The dial is never attempted in that case.
var ErrNoCredential = errors.New("no credential provided")

// Config holds the connection policy knobs.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8080/api/v1/ws
	URL string

	// ReconnectAttempts is the dial ceiling after a drop before the session
	// degrades to polling instead of going dark
	ReconnectAttempts int

	// ReconnectDelay is the fixed delay between reconnect attempts
	ReconnectDelay time.Duration

	// ProbeInterval is how often a degraded session attempts a fresh connect
	ProbeInterval time.Duration

	// HandshakeTimeout bounds a single dial
	HandshakeTimeout time.Duration
}

// DefaultConfig returns the standard connection policy for the given URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		ReconnectAttempts: 5,
		ReconnectDelay:    1000 * time.Millisecond,
		ProbeInterval:     5000 * time.Millisecond,
		HandshakeTimeout:  10 * time.Second,
	}
}

// Inbound receives every demultiplexed inbound event.
type Inbound func(event string, data json.RawMessage)

// StateHandler observes connection state transitions.
type StateHandler func(state models.ConnectionState)

// Session is a resilient bidirectional connection to the sync server.
// All components other than the session only read its state.
type Session struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger

	mu          sync.Mutex
	conn        *websocket.Conn
	state       models.ConnectionState
	credential  string
	manualClose bool
	cancel      context.CancelFunc // stops reconnect/probe loops

	writeMu sync.Mutex

	inbound   Inbound
	stateSubs []StateHandler
}

// NewSession creates a session. It does not dial until Connect is called.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	return &Session{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: logger,
		state:  models.StateDisconnected,
	}
}

// OnMessage installs the inbound sink. Must be set before Connect.
func (s *Session) OnMessage(fn Inbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = fn
}

// OnStateChange registers a state transition observer. Observers fire in
// registration order, once per actual transition.
func (s *Session) OnStateChange(fn StateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateSubs = append(s.stateSubs, fn)
}

// State returns the current connection state.
func (s *Session) State() models.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect establishes the connection using the given bearer credential.
// No-op when already connected; fails fast without dialing when the
// credential is empty.
func (s *Session) Connect(ctx context.Context, credential string) error {
	if credential == "" {
		return ErrNoCredential
	}

	s.mu.Lock()
	if s.state == models.StateConnected {
		s.mu.Unlock()
		return nil
	}
	s.credential = credential
	s.manualClose = false
	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.setState(models.StateConnecting)

	conn, err := s.dial(ctx)
	if err != nil {
		s.setState(models.StateDisconnected)
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.install(conn, loopCtx)
	return nil
}

// Disconnect tears the connection down and suppresses reconnection.
// In-flight sends fail and their operations stay queued; nothing is lost.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.manualClose = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	s.setState(models.StateDisconnected)
}

// Send transmits one named event. A send on a session that is not Connected
// is a silent no-op: callers rely on the coordinator's queueing instead.
func (s *Session) Send(event string, payload any) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == models.StateConnected
	s.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}

	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

// dial performs a single websocket handshake with the credential attached.
func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	s.mu.Lock()
	credential := s.credential
	s.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	return conn, nil
}

// install adopts a fresh connection and starts its read pump.
func (s *Session) install(conn *websocket.Conn, loopCtx context.Context) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.setState(models.StateConnected)
	go s.readPump(conn, loopCtx)
}

// readPump demultiplexes inbound frames until the connection fails.
func (s *Session) readPump(conn *websocket.Conn, loopCtx context.Context) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleDrop(conn, loopCtx)
			return
		}

		var env api.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}

		s.mu.Lock()
		sink := s.inbound
		s.mu.Unlock()

		if sink != nil {
			sink(env.Event, env.Data)
		}
	}
}

// handleDrop reacts to a transport-level failure of the given connection.
// Stale pumps (a newer connection is already installed) return silently so
// a single drop produces a single Disconnected notification.
func (s *Session) handleDrop(conn *websocket.Conn, loopCtx context.Context) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	manual := s.manualClose
	s.mu.Unlock()

	_ = conn.Close()

	if manual {
		return
	}

	s.setState(models.StateDisconnected)
	s.logger.Warn("Connection dropped, reconnecting",
		"attempts", s.cfg.ReconnectAttempts,
		"delay", s.cfg.ReconnectDelay)

	go s.reconnect(loopCtx)
}

// reconnect retries the dial a fixed number of times with a fixed delay.
// When the ceiling is exceeded the session degrades to a polling probe
// rather than going Disconnected for good.
func (s *Session) reconnect(ctx context.Context) {
	s.setState(models.StateConnecting)

	var conn *websocket.Conn
	backoff := retry.WithMaxRetries(uint64(s.cfg.ReconnectAttempts-1), retry.NewConstant(s.cfg.ReconnectDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := s.dial(ctx)
		if err != nil {
			s.logger.Debug("Reconnect attempt failed", "error", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("Reconnect ceiling exceeded, degrading to polling probe",
			"probe_interval", s.cfg.ProbeInterval)
		s.setState(models.StateDegraded)
		s.probe(ctx)
		return
	}

	s.install(conn, ctx)
}

// probe periodically attempts a fresh connect while degraded.
func (s *Session) probe(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn, err := s.dial(ctx)
			if err != nil {
				s.logger.Debug("Liveness probe failed", "error", err)
				continue
			}
			s.install(conn, ctx)
			return
		}
	}
}

// setState transitions the state and notifies observers exactly once per
// actual change. Handlers run outside the session lock.
func (s *Session) setState(state models.ConnectionState) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	subs := make([]StateHandler, len(s.stateSubs))
	copy(subs, s.stateSubs)
	s.mu.Unlock()

	s.logger.Debug("Connection state changed", "state", state.String())
	for _, fn := range subs {
		fn(state)
	}
}
