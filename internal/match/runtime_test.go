package match

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"pong-arena/internal/game"
)

const tick = 16 * time.Millisecond

func TestTicksBroadcastStateWhilePlaying(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.CreateSession(ModeLocal, false, "")
	_, conn := env.join(t, s, "a")
	if err := env.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := conn.Count()
	env.clock.Advance(5 * tick)
	if got := conn.Count() - before; got != 5 {
		t.Fatalf("frames after 5 ticks = %d", got)
	}
	if last := conn.Last(t); last["type"] != "state" || last["phase"] != "playing" {
		t.Fatalf("unexpected frame: %v", last)
	}
}

func TestDisconnectWhilePlayingPausesAndStopsTicks(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.FindOrCreateQueueSession()
	env.join(t, s, "a")
	env.reg.FindOrCreateQueueSession()
	_, connB := env.join(t, s, "b")
	if err := env.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.Advance(3 * tick)

	env.reg.RemovePlayer(s, "a")
	if s.Phase() != game.PhasePaused {
		t.Fatalf("phase = %s, want paused", s.Phase())
	}
	if last := connB.Last(t); last["phase"] != "paused" {
		t.Fatalf("remaining player should see paused state, got %v", last)
	}
	frames := connB.Count()
	env.clock.Advance(500 * time.Millisecond)
	if connB.Count() != frames {
		t.Fatalf("ticks kept broadcasting after pause: %d -> %d", frames, connB.Count())
	}
	if env.clock.Pending() != 1 {
		t.Fatalf("expected only the forfeit timer, pending=%d", env.clock.Pending())
	}
	if err := env.rt.Resume(s); !errors.Is(err, ErrOpponentMissing) {
		t.Fatalf("resume with one player: %v", err)
	}
}

func TestPauseResumeKeepsState(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.CreateSession(ModeLocal, false, "")
	_, conn := env.join(t, s, "a")
	if err := env.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.Advance(2 * tick)
	if err := env.rt.Pause(s); err != nil {
		t.Fatalf("pause: %v", err)
	}
	s.mu.Lock()
	ball := s.state.Ball
	s.mu.Unlock()

	frames := conn.Count()
	env.clock.Advance(10 * tick)
	if conn.Count() != frames {
		t.Fatal("paused session should not tick")
	}
	if err := env.rt.Pause(s); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("double pause: %v", err)
	}
	if err := env.rt.Resume(s); err != nil {
		t.Fatalf("resume: %v", err)
	}
	s.mu.Lock()
	after := s.state.Ball
	s.mu.Unlock()
	if after != ball {
		t.Fatalf("resume changed ball: %+v -> %+v", ball, after)
	}
	env.clock.Advance(tick)
	s.mu.Lock()
	moved := s.state.Ball != ball
	s.mu.Unlock()
	if !moved {
		t.Fatal("ball should move after resume")
	}
}

func TestStartRejectedOutsideReadyOrEnded(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.FindOrCreateQueueSession()
	env.join(t, s, "a")
	if err := env.rt.Start(s); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("start from waiting: %v", err)
	}
	if err := env.rt.Restart(s); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("restart from waiting: %v", err)
	}
}

func TestMatchEndStopsLoopAndNotifiesCoordinator(t *testing.T) {
	env := newTestEnv(t)
	s, c1, _ := env.startedTournament(t)
	win := s.state.Tuning().WinScore

	s.mu.Lock()
	s.state.Score.Left = win - 1
	s.state.Ball = game.Ball{X: s.state.Width + 50, Y: 300, Radius: 10, VX: 400, VY: 0}
	s.mu.Unlock()

	env.clock.Advance(tick)
	if s.Phase() != game.PhaseEnded {
		t.Fatalf("phase = %s, want ended", s.Phase())
	}
	if last := c1.Last(t); last["phase"] != "ended" || last["endReason"] != "score" {
		t.Fatalf("unexpected final frame: %v", last)
	}
	if env.clock.Pending() != 0 {
		t.Fatalf("tick timer still armed: %d", env.clock.Pending())
	}
	want := []string{"start", "score", "end"}
	if got := env.hooks.Kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("hooks = %v, want %v", got, want)
	}
	end := env.hooks.Last()
	if end.score.Left != win || end.reason != game.EndReasonScore {
		t.Fatalf("end hook = %+v", end)
	}
	if end.meta.TournamentID != "t1" || end.meta.MatchID != "m1" || end.meta.SessionID != s.ID {
		t.Fatalf("end meta = %+v", end.meta)
	}
	if err := env.rt.Start(s); !errors.Is(err, ErrRematchNotAllowed) {
		t.Fatalf("tournament rematch: %v", err)
	}
}

func TestRestartResetsEndedMatch(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.CreateSession(ModeSolo, true, game.DifficultyHard)
	env.join(t, s, "a")
	if err := env.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.mu.Lock()
	s.state.Score.Right = s.state.Tuning().WinScore - 1
	s.state.Ball = game.Ball{X: -50, Y: 300, Radius: 10, VX: -400, VY: 0}
	s.mu.Unlock()
	env.clock.Advance(tick)
	if s.Phase() != game.PhaseEnded {
		t.Fatalf("phase = %s", s.Phase())
	}
	if len(env.hooks.Kinds()) != 0 {
		t.Fatal("non-tournament sessions must not notify the coordinator")
	}

	if err := env.rt.Start(s); err != nil {
		t.Fatalf("rematch: %v", err)
	}
	if s.Phase() != game.PhasePlaying || s.Score() != (game.Score{}) {
		t.Fatalf("rematch state: phase=%s score=%+v", s.Phase(), s.Score())
	}
	if env.clock.Pending() != 1 {
		t.Fatalf("expected one armed tick timer, got %d", env.clock.Pending())
	}
}

func TestForfeitAwardedAfterGrace(t *testing.T) {
	env := newTestEnv(t)
	s, c1, _ := env.startedTournament(t)
	env.clock.Advance(2 * tick)

	env.reg.RemovePlayer(s, "p2")
	if s.Phase() != game.PhasePaused {
		t.Fatalf("phase = %s, want paused", s.Phase())
	}
	env.clock.Advance(500 * time.Millisecond)
	if s.Phase() != game.PhasePaused {
		t.Fatal("forfeit fired before the grace period")
	}
	env.clock.Advance(600 * time.Millisecond)
	if s.Phase() != game.PhaseEnded {
		t.Fatalf("phase = %s, want ended", s.Phase())
	}
	if last := c1.Last(t); last["endReason"] != "forfeit" {
		t.Fatalf("final frame = %v", last)
	}
	if s.Score().Left != s.state.Tuning().WinScore {
		t.Fatalf("score = %+v", s.Score())
	}
	end := env.hooks.Last()
	if end.kind != "end" || end.reason != game.EndReasonForfeit {
		t.Fatalf("last hook = %+v", end)
	}
}

// startedQueue pairs a (left) and b (right) through the queue and kicks off.
func (e *testEnv) startedQueue(t *testing.T) (*Session, *fakeConn, *fakeConn) {
	t.Helper()
	s := e.reg.FindOrCreateQueueSession()
	_, ca := e.join(t, s, "a")
	if again := e.reg.FindOrCreateQueueSession(); again != s {
		t.Fatal("second queue caller should be paired")
	}
	_, cb := e.join(t, s, "b")
	if err := e.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s, ca, cb
}

func TestQueueDropAwardsRemainingPlayer(t *testing.T) {
	env := newTestEnv(t)
	s, ca, _ := env.startedQueue(t)
	env.clock.Advance(2 * tick)

	env.reg.RemovePlayer(s, "b")
	if s.Phase() != game.PhasePaused {
		t.Fatalf("phase = %s, want paused", s.Phase())
	}
	if again := env.reg.FindOrCreateQueueSession(); again == s {
		t.Fatal("a started queue session must not be offered to new callers")
	}
	env.clock.Advance(1100 * time.Millisecond)
	if s.Phase() != game.PhaseEnded {
		t.Fatalf("phase = %s, want ended", s.Phase())
	}
	if last := ca.Last(t); last["endReason"] != "forfeit" {
		t.Fatalf("final frame = %v", last)
	}
	if s.Score().Left != s.state.Tuning().WinScore {
		t.Fatalf("score = %+v", s.Score())
	}
	if len(env.hooks.Kinds()) != 0 {
		t.Fatalf("queue sessions must not notify the coordinator, got %v", env.hooks.Kinds())
	}
}

func TestQueueRejoinOnlyForOriginalPair(t *testing.T) {
	env := newTestEnv(t)
	s, _, _ := env.startedQueue(t)
	env.reg.RemovePlayer(s, "b")
	env.clock.Advance(500 * time.Millisecond)

	found, err := env.reg.RejoinQueueSession(s.ID)
	if err != nil || found != s {
		t.Fatalf("rejoin lookup: %v", err)
	}
	if _, err := env.reg.AddPlayer(s, &fakeConn{}, JoinOptions{PlayerID: "c"}); !errors.Is(err, ErrUnexpectedPlayer) {
		t.Fatalf("stranger joining a paired queue session: %v", err)
	}
	p, _ := env.join(t, s, "b")
	if p.Side != game.SideRight {
		t.Fatalf("rejoined side = %s", p.Side)
	}
	env.clock.Advance(2 * time.Second)
	if s.Phase() != game.PhasePaused {
		t.Fatalf("phase = %s, want paused", s.Phase())
	}
	if err := env.rt.Resume(s); err != nil {
		t.Fatalf("resume after rejoin: %v", err)
	}
	if s.Phase() != game.PhasePlaying {
		t.Fatalf("phase = %s", s.Phase())
	}
}

func TestRejoinQueueSessionRequiresStartedPair(t *testing.T) {
	env := newTestEnv(t)
	q := env.reg.FindOrCreateQueueSession()
	env.join(t, q, "a")
	if _, err := env.reg.RejoinQueueSession(q.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unpaired queue session: %v", err)
	}
	solo := env.reg.CreateSession(ModeSolo, true, "")
	env.join(t, solo, "x")
	if _, err := env.reg.RejoinQueueSession(solo.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("solo session: %v", err)
	}
	if _, err := env.reg.RejoinQueueSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing session: %v", err)
	}
}

func TestRejoinCancelsForfeit(t *testing.T) {
	env := newTestEnv(t)
	s, _, _ := env.startedTournament(t)
	env.reg.RemovePlayer(s, "p2")
	env.clock.Advance(500 * time.Millisecond)

	p, _ := env.join(t, s, "p2")
	if p.Side != game.SideRight {
		t.Fatalf("rejoined side = %s", p.Side)
	}
	env.clock.Advance(2 * time.Second)
	if s.Phase() != game.PhasePaused {
		t.Fatalf("phase = %s, want paused", s.Phase())
	}
	if err := env.rt.Resume(s); err != nil {
		t.Fatalf("resume after rejoin: %v", err)
	}
	if s.Phase() != game.PhasePlaying {
		t.Fatalf("phase = %s", s.Phase())
	}
}

func TestSetBothInputsOnlyForLocal(t *testing.T) {
	env := newTestEnv(t)
	local := env.reg.CreateSession(ModeLocal, false, "")
	env.join(t, local, "kb")
	if err := env.rt.SetBothInputs(local, game.Input{Up: true}, game.Input{Down: true}); err != nil {
		t.Fatalf("local inputBoth: %v", err)
	}
	local.mu.Lock()
	inputs := local.state.Inputs
	local.mu.Unlock()
	if !inputs[0].Up || !inputs[1].Down {
		t.Fatalf("inputs = %+v", inputs)
	}

	q := env.reg.FindOrCreateQueueSession()
	if err := env.rt.SetBothInputs(q, game.Input{}, game.Input{}); !errors.Is(err, ErrNotLocalSession) {
		t.Fatalf("queue inputBoth: %v", err)
	}
}

func TestSetInputIgnoresAISide(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.CreateSession(ModeSolo, true, "")
	p, _ := env.join(t, s, "h")
	if err := env.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.rt.SetInput(s, p.Side, game.Input{Up: true})
	env.rt.SetInput(s, game.SideRight, game.Input{Down: true})
	s.mu.Lock()
	inputs := s.state.Inputs
	s.mu.Unlock()
	if !inputs[0].Up {
		t.Fatal("human input not applied")
	}
	if inputs[1].Down {
		t.Fatal("client must not drive the AI paddle")
	}
}

func TestAIInputNeverLatchedAfterPause(t *testing.T) {
	env := newTestEnv(t)
	s := env.reg.CreateSession(ModeSolo, true, game.DifficultyHard)
	env.join(t, s, "h")
	if err := env.rt.Start(s); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 200; i++ {
		env.clock.Advance(tick)
		s.mu.Lock()
		in := s.state.Inputs[1]
		paddle := s.state.Paddles[1]
		height := s.state.Height
		s.mu.Unlock()
		if in.Up && in.Down {
			t.Fatal("AI pressed both directions")
		}
		if paddle.Y < 0 || paddle.Y > height-paddle.Height {
			t.Fatalf("AI paddle out of bounds: %v", paddle.Y)
		}
	}
	if err := env.rt.Pause(s); err != nil {
		t.Fatalf("pause: %v", err)
	}
	s.mu.Lock()
	in := s.state.Inputs[1]
	s.mu.Unlock()
	if in.Up || in.Down {
		t.Fatalf("AI input latched while paused: %+v", in)
	}
}
