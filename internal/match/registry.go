package match

import (
	"math/rand"
	"sync"
	"time"

	"pong-arena/internal/game"
	"pong-arena/internal/game/viewmodel"
	"pong-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// Registry owns every live session. Lock order is Registry.mu before
// Session.mu.
type Registry struct {
	tuning  game.Tuning
	runtime *Runtime
	newRand func() *rand.Rand

	mu       sync.Mutex
	sessions map[string]*Session
	keyed    map[string]*Session
	queue    []*Session
}

// JoinOptions describes a connecting player.
type JoinOptions struct {
	PlayerID    string
	DisplayName string
	SideHint    game.Side
}

type Stats struct {
	QueueWaiting int `json:"queue_waiting"`
	Playing      int `json:"playing"`
	Sessions     int `json:"sessions"`
}

func NewRegistry(tuning game.Tuning, rt *Runtime) *Registry {
	return &Registry{
		tuning:  tuning,
		runtime: rt,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sessions: map[string]*Session{},
		keyed:    map[string]*Session{},
	}
}

// SetRandSource replaces the per-session random source factory.
func (r *Registry) SetRandSource(f func() *rand.Rand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newRand = f
}

func (r *Registry) Runtime() *Runtime {
	return r.runtime
}

func (r *Registry) CreateSession(mode Mode, allowAI bool, difficulty game.Difficulty) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(mode, allowAI, difficulty)
}

func (r *Registry) createLocked(mode Mode, allowAI bool, difficulty game.Difficulty) *Session {
	s := &Session{
		ID:         store.NewID(),
		Mode:       mode,
		AllowAI:    allowAI,
		Difficulty: difficulty,
		state:      game.NewState(r.tuning, r.newRand()),
	}
	r.sessions[s.ID] = s
	if mode == ModeQueue {
		r.queue = append(r.queue, s)
	}
	metricSessionsCreated.Add(1)
	metricSessionsActive.Add(1)
	log.Info().
		Str("session_id", s.ID).
		Str("mode", string(mode)).
		Bool("allow_ai", allowAI).
		Msg("session_created")
	return s
}

// FindOrCreateQueueSession pairs the caller with a queue session holding
// exactly one occupant, or opens a new one. The returned session has a slot
// reserved for the caller; AddPlayer consumes it and Release drops it.
func (r *Registry) FindOrCreateQueueSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.queue {
		s.mu.Lock()
		open := s.state.Phase == game.PhaseWaiting && len(s.players)+s.reserved == 1
		if open {
			s.reserved++
		}
		s.mu.Unlock()
		if open {
			return s
		}
	}
	s := r.createLocked(ModeQueue, false, "")
	s.reserved = 1
	return s
}

// CreateTournamentSession returns the session for tournamentID+matchID,
// creating it on first use, and records playerID as the expected occupant
// of the left (isPlayer1) or right side.
func (r *Registry) CreateTournamentSession(tournamentID, matchID, playerID string, isPlayer1 bool) *Session {
	key := tournamentID + ":" + matchID
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.keyed[key]
	if s == nil {
		s = r.createLocked(ModeTournament, false, "")
		s.TournamentID = tournamentID
		s.MatchID = matchID
		r.keyed[key] = s
		s.mu.Lock()
		r.armIdleLocked(s)
		s.mu.Unlock()
	}
	s.mu.Lock()
	idx := 1
	if isPlayer1 {
		idx = 0
	}
	if s.expected[idx] == "" {
		s.expected[idx] = playerID
	}
	s.mu.Unlock()
	return s
}

// CreateInvitationSession opens a session bound to an invitation. The
// inviter plays left and the invitee right. Repeated calls return the
// existing session.
func (r *Registry) CreateInvitationSession(invitationID, inviterID, inviteeID string) *Session {
	key := invitationKey(invitationID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.keyed[key]; s != nil {
		return s
	}
	s := r.createLocked(ModeInvitation, false, "")
	s.InvitationID = invitationID
	s.expected = [2]string{inviterID, inviteeID}
	r.keyed[key] = s
	s.mu.Lock()
	r.armIdleLocked(s)
	s.mu.Unlock()
	return s
}

func (r *Registry) InvitationSession(invitationID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.keyed[invitationKey(invitationID)]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// RejoinQueueSession returns the paired queue session with id for a
// player reconnecting after a drop. Seats are bound to the original pair, so
// AddPlayer turns away anyone else.
func (r *Registry) RejoinQueueSession(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[id]
	if s == nil || s.Mode != ModeQueue {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pairedLocked() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func invitationKey(id string) string {
	return "inv:" + id
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// AddPlayer seats conn in s. It fails with ErrSessionFull when both sides
// are taken, leaving the player list untouched.
func (r *Registry) AddPlayer(s *Session, conn Conn, opts JoinOptions) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return nil, ErrSessionNotFound
	}
	if len(s.players) >= 2 {
		return nil, ErrSessionFull
	}
	playerID := opts.PlayerID
	if playerID == "" {
		playerID = store.NewID()
	}
	if s.playerLocked(playerID) != nil {
		return nil, ErrSessionFull
	}
	side, err := s.pickSideLocked(playerID, opts.SideHint)
	if err != nil {
		return nil, err
	}
	if s.reserved > 0 {
		s.reserved--
	}
	r.stopIdleLocked(s)
	p := &Player{ID: playerID, Side: side, DisplayName: opts.DisplayName, conn: conn}
	s.players = append(s.players, p)
	s.sendLocked(p, viewmodel.BuildConnected(p.ID, s.ID, p.Side))

	humans := len(s.players)
	if humans >= 2 && s.ai != nil {
		s.ai = nil
		s.state.SetInput(side, game.Input{})
	}
	r.runtime.cancelForfeitLocked(s)

	log.Info().
		Str("session_id", s.ID).
		Str("player_id", p.ID).
		Str("side", string(p.Side)).
		Int("players", humans).
		Msg("player_joined")

	if s.state.Phase == game.PhaseWaiting && s.readyLocked() {
		s.state.SetPhase(game.PhaseReady)
		s.broadcastLocked()
		return p, nil
	}
	s.sendLocked(p, viewmodel.BuildState(s.state))
	return p, nil
}

// RemovePlayer detaches playerID. A running match left with fewer than two
// players is paused; an empty session is deleted.
func (r *Registry) RemovePlayer(s *Session, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	left := s.players[idx]
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	s.state.SetInput(left.Side, game.Input{})

	log.Info().
		Str("session_id", s.ID).
		Str("player_id", playerID).
		Int("players", len(s.players)).
		Str("phase", string(s.state.Phase)).
		Msg("player_left")

	if len(s.players) == 0 && s.reserved == 0 {
		r.deleteLocked(s)
		return
	}

	switch s.state.Phase {
	case game.PhasePlaying:
		if len(s.players) < 2 {
			r.runtime.haltLocked(s)
			s.state.SetPhase(game.PhasePaused)
			s.broadcastLocked()
		}
	case game.PhaseReady:
		if !s.readyLocked() {
			s.state.SetPhase(game.PhaseWaiting)
			s.broadcastLocked()
		}
	}
	if s.state.Phase == game.PhasePaused && len(s.players) == 1 && s.Mode.ForfeitPolicy() == ForfeitAward {
		r.runtime.armForfeitLocked(s)
	}
}

// Release drops a slot reserved by FindOrCreateQueueSession that was never
// filled.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserved > 0 {
		s.reserved--
	}
	if len(s.players) == 0 && s.reserved == 0 {
		r.deleteLocked(s)
	}
}

func (r *Registry) deleteLocked(s *Session) {
	if s.deleted {
		return
	}
	r.runtime.haltLocked(s)
	r.runtime.cancelForfeitLocked(s)
	r.stopIdleLocked(s)
	s.deleted = true
	delete(r.sessions, s.ID)
	for k, v := range r.keyed {
		if v == s {
			delete(r.keyed, k)
		}
	}
	for i, q := range r.queue {
		if q == s {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
	metricSessionsActive.Add(-1)
	log.Info().Str("session_id", s.ID).Msg("session_deleted")
}

// armIdleLocked schedules removal of a session nobody has joined yet.
func (r *Registry) armIdleLocked(s *Session) {
	r.stopIdleLocked(s)
	s.idleTimer = r.runtime.clock.AfterFunc(r.runtime.idleTTL, func() {
		r.expireIdle(s)
	})
}

func (r *Registry) stopIdleLocked(s *Session) {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

func (r *Registry) expireIdle(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleTimer = nil
	if s.deleted || len(s.players) > 0 || s.reserved > 0 {
		return
	}
	metricSessionsExpired.Add(1)
	log.Info().
		Str("session_id", s.ID).
		Str("mode", string(s.Mode)).
		Msg("session_expired")
	r.deleteLocked(s)
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	var st Stats
	st.Sessions = len(r.sessions)
	for _, s := range r.sessions {
		s.mu.Lock()
		phase := s.state.Phase
		s.mu.Unlock()
		if s.Mode == ModeQueue && phase == game.PhaseWaiting {
			st.QueueWaiting++
		}
		if phase == game.PhasePlaying {
			st.Playing++
		}
	}
	return st
}

func (r *Registry) Summaries() []viewmodel.SessionSummary {
	r.mu.Lock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.Unlock()

	out := make([]viewmodel.SessionSummary, 0, len(list))
	for _, s := range list {
		out = append(out, s.Summary())
	}
	return out
}

// Shutdown stops every session timer.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.mu.Lock()
		r.runtime.haltLocked(s)
		r.runtime.cancelForfeitLocked(s)
		r.stopIdleLocked(s)
		for _, p := range s.players {
			p.conn.Close()
		}
		s.mu.Unlock()
	}
}
