package match

import (
	"math/rand"
	"time"

	"pong-arena/internal/game"

	"github.com/rs/zerolog/log"
)

const (
	defaultTickInterval = 16 * time.Millisecond
	defaultForfeitGrace = 10 * time.Second
	defaultIdleTTL      = 10 * time.Minute
)

type RuntimeConfig struct {
	TickInterval time.Duration
	ForfeitGrace time.Duration
	// IdleTTL bounds how long a pre-created session may sit with nobody
	// joined.
	IdleTTL time.Duration
}

// Runtime drives the per-session tick loops. Every method expects the
// session lock to be free; the *Locked helpers expect it held.
type Runtime struct {
	clock    Clock
	interval time.Duration
	grace    time.Duration
	idleTTL  time.Duration
	hooks    Hooks
}

func NewRuntime(clock Clock, cfg RuntimeConfig, hooks Hooks) *Runtime {
	if clock == nil {
		clock = RealClock()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.ForfeitGrace <= 0 {
		cfg.ForfeitGrace = defaultForfeitGrace
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if hooks == nil {
		hooks = noopHooks{}
	}
	return &Runtime{
		clock:    clock,
		interval: cfg.TickInterval,
		grace:    cfg.ForfeitGrace,
		idleTTL:  cfg.IdleTTL,
		hooks:    hooks,
	}
}

// Start kicks off a ready session, or rematches an ended one.
func (rt *Runtime) Start(s *Session) error {
	s.mu.Lock()
	switch s.state.Phase {
	case game.PhaseReady:
	case game.PhaseEnded:
		s.mu.Unlock()
		return rt.Restart(s)
	default:
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	if s.Mode == ModeQueue {
		s.bindSeatsLocked()
	}
	s.state.SetPhase(game.PhasePlaying)
	rt.beginLocked(s)
	first := !s.started
	s.started = true
	meta := s.metaLocked()
	tournament := s.TournamentID != ""
	s.mu.Unlock()

	log.Info().Str("session_id", s.ID).Msg("match_started")
	if first && tournament {
		rt.hooks.MatchStarted(meta)
	}
	return nil
}

// Restart resets an ended match and plays it again.
func (rt *Runtime) Restart(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != game.PhaseEnded {
		return ErrInvalidPhase
	}
	if s.Mode == ModeTournament {
		return ErrRematchNotAllowed
	}
	if s.Mode.NeedsTwoHumans() && len(s.players) < 2 {
		return ErrOpponentMissing
	}
	s.state.Reset()
	s.state.SetPhase(game.PhasePlaying)
	rt.beginLocked(s)
	log.Info().Str("session_id", s.ID).Msg("match_restarted")
	return nil
}

func (rt *Runtime) Pause(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != game.PhasePlaying {
		return ErrInvalidPhase
	}
	rt.haltLocked(s)
	s.state.SetPhase(game.PhasePaused)
	s.broadcastLocked()
	return nil
}

// Resume continues a paused match. Modes that need two humans refuse while
// a seat is empty; the forfeit path owns that state.
func (rt *Runtime) Resume(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != game.PhasePaused {
		return ErrInvalidPhase
	}
	if s.Mode.NeedsTwoHumans() && len(s.players) < 2 {
		return ErrOpponentMissing
	}
	s.state.SetPhase(game.PhasePlaying)
	rt.beginLocked(s)
	return nil
}

// SetInput replaces the input record of the given side.
func (rt *Runtime) SetInput(s *Session, side game.Side, in game.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == game.PhaseEnded {
		return
	}
	if s.ai != nil && s.ai.Side == side {
		return
	}
	s.state.SetInput(side, in)
}

// SetBothInputs replaces both sides at once for a shared-keyboard session.
func (rt *Runtime) SetBothInputs(s *Session, p1, p2 game.Input) error {
	if s.Mode != ModeLocal {
		return ErrNotLocalSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == game.PhaseEnded {
		return nil
	}
	s.state.SetInput(game.SideLeft, p1)
	s.state.SetInput(game.SideRight, p2)
	return nil
}

// beginLocked attaches or detaches the AI, resets the tick baseline and arms
// the tick timer. The session must already be playing.
func (rt *Runtime) beginLocked(s *Session) {
	rt.haltLocked(s)
	rt.cancelForfeitLocked(s)
	if s.AllowAI && len(s.players) == 1 {
		side := s.players[0].Side.Opposite()
		if s.ai == nil || s.ai.Side != side {
			s.ai = game.NewAI(side, s.state.Tuning().Profile(s.Difficulty), rand.New(rand.NewSource(rt.clock.Now().UnixNano())))
		}
		s.ai.Reset()
	} else {
		s.ai = nil
	}
	s.lastTick = rt.clock.Now()
	rt.scheduleLocked(s)
	s.broadcastLocked()
}

func (rt *Runtime) scheduleLocked(s *Session) {
	gen := s.gen
	s.timer = rt.clock.AfterFunc(rt.interval, func() {
		rt.tick(s, gen)
	})
}

// haltLocked stops the tick timer. Callbacks already in flight see a new
// generation and do nothing.
func (rt *Runtime) haltLocked(s *Session) {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.ai != nil {
		s.ai.Reset()
		s.state.SetInput(s.ai.Side, game.Input{})
	}
}

func (rt *Runtime) tick(s *Session, gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.timer == nil || s.state.Phase != game.PhasePlaying {
		s.mu.Unlock()
		return
	}
	now := rt.clock.Now()
	dt := now.Sub(s.lastTick)
	s.lastTick = now

	st := s.state
	if s.ai != nil {
		s.ai.Perceive(st, now)
		st.SetInput(s.ai.Side, s.ai.Act(st))
	}
	res := game.Step(st, dt, now)
	metricTicksTotal.Add(1)
	s.broadcastLocked()

	if st.Phase == game.PhaseEnded {
		rt.haltLocked(s)
	} else {
		rt.scheduleLocked(s)
	}
	meta := s.metaLocked()
	score := st.Score
	reason := st.EndReason
	tournament := s.TournamentID != ""
	s.mu.Unlock()

	if res.Ended {
		metricMatchesEnded.Add(1)
		log.Info().
			Str("session_id", s.ID).
			Int("score_left", score.Left).
			Int("score_right", score.Right).
			Msg("match_ended")
	}
	if !tournament {
		return
	}
	if res.Scored {
		rt.hooks.ScoreUpdated(meta, score)
	}
	if res.Ended {
		rt.hooks.MatchEnded(meta, score, reason)
	}
}

// armForfeitLocked schedules the forfeit award for a session left with one
// player.
func (rt *Runtime) armForfeitLocked(s *Session) {
	rt.cancelForfeitLocked(s)
	gen := s.forfeitGen
	s.forfeitTimer = rt.clock.AfterFunc(rt.grace, func() {
		rt.forfeit(s, gen)
	})
	log.Info().
		Str("session_id", s.ID).
		Dur("grace", rt.grace).
		Msg("forfeit_grace_started")
}

func (rt *Runtime) cancelForfeitLocked(s *Session) {
	s.forfeitGen++
	if s.forfeitTimer != nil {
		s.forfeitTimer.Stop()
		s.forfeitTimer = nil
	}
}

func (rt *Runtime) forfeit(s *Session, gen uint64) {
	s.mu.Lock()
	if s.forfeitGen != gen || s.deleted || len(s.players) != 1 || s.state.Phase != game.PhasePaused {
		s.mu.Unlock()
		return
	}
	s.forfeitTimer = nil
	winner := s.players[0].Side
	s.state.AwardForfeit(winner)
	s.broadcastLocked()
	meta := s.metaLocked()
	score := s.state.Score
	tournament := s.TournamentID != ""
	s.mu.Unlock()

	metricForfeits.Add(1)
	metricMatchesEnded.Add(1)
	log.Info().
		Str("session_id", s.ID).
		Str("winner", string(winner)).
		Msg("match_forfeited")
	if tournament {
		rt.hooks.MatchEnded(meta, score, game.EndReasonForfeit)
	}
}
