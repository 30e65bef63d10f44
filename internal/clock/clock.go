// Package clock provides the millisecond timestamps and client-derived
// identifiers used to order mutations across clients.
package clock

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock выдает миллисекундные timestamps, монотонные в пределах процесса.
// Если wall clock откатился назад (NTP, suspend), счетчик продолжает расти,
// чтобы порядок локальных событий не нарушался.
type Clock struct {
	mu   sync.Mutex
	last int64
}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in milliseconds since epoch, never going
// backwards within this process.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

// IDGenerator derives 64-bit item ids from the client identity and the
// current timestamp: the top 48 bits carry milliseconds, the low 16 bits a
// per-client salted counter. Two clients cannot mint the same id, and ids
// sort roughly by creation time.
type IDGenerator struct {
	mu    sync.Mutex
	clock *Clock
	salt  uint16
	seq   uint16
}

// NewIDGenerator creates a generator salted with a random per-session value.
func NewIDGenerator(c *Clock) *IDGenerator {
	u := uuid.New()
	return &IDGenerator{
		clock: c,
		salt:  binary.BigEndian.Uint16(u[0:2]),
	}
}

// NextItemID returns a fresh item id.
func (g *IDGenerator) NextItemID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	ms := g.clock.Now()
	return ms<<16 | int64(g.salt+g.seq)&0xffff
}

// NewOpID returns a locally unique operation id used for idempotent replay.
func NewOpID() string {
	return uuid.New().String()
}
