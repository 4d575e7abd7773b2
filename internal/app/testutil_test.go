package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeConn records delivered frames; fail makes every send error so tests
// can exercise the implicit-disconnect eviction path.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// events decodes the event name of every recorded frame, in receive order.
func (f *fakeConn) events(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		var env struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(fr, &env); err != nil {
			t.Fatalf("bad frame %q: %v", fr, err)
		}
		out = append(out, env.Event)
	}
	return out
}

func (f *fakeConn) last(t *testing.T, v any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		t.Fatalf("no frames recorded")
	}
	if err := json.Unmarshal(f.frames[len(f.frames)-1], v); err != nil {
		t.Fatalf("decode last frame: %v", err)
	}
}

type fixture struct {
	clock    *fakeClock
	registry *Registry
	store    *SessionStore
	engine   *Engine
}

func newFixture() *fixture {
	clock := newFakeClock()
	reg := NewRegistry()
	store := NewSessionStore(clock)
	delivery := NewDelivery(reg)
	engine := NewEngine(reg, store, delivery)
	return &fixture{clock: clock, registry: reg, store: store, engine: engine}
}

func (fx *fixture) connect(uid domain.UserID) *fakeConn {
	c := &fakeConn{}
	fx.registry.Register(uid, c)
	return c
}
