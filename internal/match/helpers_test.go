package match

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"pong-arena/internal/game"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward, firing due timers in deadline order. Timers
// armed by a callback fire in the same call if they fall inside the window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.done || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	c.timers = live
	c.mu.Unlock()
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.frames = append(c.frames, msg)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) Last(t *testing.T) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatal("no frames sent")
	}
	var out map[string]any
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &out); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return out
}

func (c *fakeConn) First(t *testing.T) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatal("no frames sent")
	}
	var out map[string]any
	if err := json.Unmarshal(c.frames[0], &out); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return out
}

type hookEvent struct {
	kind   string
	meta   MatchMeta
	score  game.Score
	reason game.EndReason
}

type recordingHooks struct {
	mu     sync.Mutex
	events []hookEvent
}

func (h *recordingHooks) MatchStarted(meta MatchMeta) {
	h.record(hookEvent{kind: "start", meta: meta})
}

func (h *recordingHooks) ScoreUpdated(meta MatchMeta, score game.Score) {
	h.record(hookEvent{kind: "score", meta: meta, score: score})
}

func (h *recordingHooks) MatchEnded(meta MatchMeta, score game.Score, reason game.EndReason) {
	h.record(hookEvent{kind: "end", meta: meta, score: score, reason: reason})
}

func (h *recordingHooks) record(e hookEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) Kinds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.kind)
	}
	return out
}

func (h *recordingHooks) Last() hookEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

type testEnv struct {
	clock *fakeClock
	hooks *recordingHooks
	rt    *Runtime
	reg   *Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newFakeClock()
	hooks := &recordingHooks{}
	rt := NewRuntime(clock, RuntimeConfig{TickInterval: 16 * time.Millisecond, ForfeitGrace: time.Second, IdleTTL: time.Minute}, hooks)
	reg := NewRegistry(game.DefaultTuning(), rt)
	var seed int64
	reg.SetRandSource(func() *rand.Rand {
		seed++
		return rand.New(rand.NewSource(seed))
	})
	return &testEnv{clock: clock, hooks: hooks, rt: rt, reg: reg}
}

func (e *testEnv) join(t *testing.T, s *Session, playerID string) (*Player, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	p, err := e.reg.AddPlayer(s, conn, JoinOptions{PlayerID: playerID})
	if err != nil {
		t.Fatalf("add player %q: %v", playerID, err)
	}
	return p, conn
}

// startedTournament returns a playing tournament session with p1 left and
// p2 right.
func (e *testEnv) startedTournament(t *testing.T) (*Session, *fakeConn, *fakeConn) {
	t.Helper()
	s := e.reg.CreateTournamentSession("t1", "m1", "p1", true)
	e.reg.CreateTournamentSession("t1", "m1", "p2", false)
	_, c1 := e.join(t, s, "p1")
	_, c2 := e.join(t, s, "p2")
	if err := e.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s, c1, c2
}
