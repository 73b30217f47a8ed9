package match

import (
	"encoding/json"
	"sync"
	"time"

	"pong-arena/internal/game"
	"pong-arena/internal/game/viewmodel"

	"github.com/rs/zerolog/log"
)

type Mode string

const (
	ModeSolo       Mode = "solo"
	ModeLocal      Mode = "local"
	ModeQueue      Mode = "queue"
	ModeTournament Mode = "tournament"
	ModeInvitation Mode = "invitation"
)

// ParseMode reports false for unknown modes.
func ParseMode(raw string) (Mode, bool) {
	switch m := Mode(raw); m {
	case ModeSolo, ModeLocal, ModeQueue, ModeTournament, ModeInvitation:
		return m, true
	}
	return "", false
}

// NeedsTwoHumans reports whether a match in this mode cannot run with a
// single connected player.
func (m Mode) NeedsTwoHumans() bool {
	return m == ModeQueue || m == ModeTournament || m == ModeInvitation
}

// ForfeitPolicy decides what a mid-match disconnect does.
type ForfeitPolicy int

const (
	// ForfeitPause leaves the match paused until the players resume it.
	ForfeitPause ForfeitPolicy = iota
	// ForfeitAward ends the match for the remaining player once the
	// reconnect grace period passes.
	ForfeitAward
)

// ForfeitPolicy awards the match in every mode that needs two humans.
func (m Mode) ForfeitPolicy() ForfeitPolicy {
	if m.NeedsTwoHumans() {
		return ForfeitAward
	}
	return ForfeitPause
}

// Conn is the outbound half of a player connection. Send must not block.
type Conn interface {
	Send(msg []byte) bool
	Close()
}

type Player struct {
	ID          string
	Side        game.Side
	DisplayName string
	conn        Conn
}

// Session is one live match. All fields below mu are guarded by it.
type Session struct {
	ID           string
	Mode         Mode
	AllowAI      bool
	Difficulty   game.Difficulty
	TournamentID string
	MatchID      string
	InvitationID string

	mu       sync.Mutex
	expected [2]string
	players  []*Player
	reserved int
	state    *game.State
	ai       *game.AI
	deleted  bool

	timer    Timer
	gen      uint64
	lastTick time.Time
	started  bool

	forfeitTimer Timer
	forfeitGen   uint64

	idleTimer Timer
}

func (s *Session) Phase() game.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

func (s *Session) Score() game.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Score
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Session) HasAI() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ai != nil
}

// Player returns the connected player with id.
func (s *Session) Player(id string) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerLocked(id)
	return p, p != nil
}

func (s *Session) Summary() viewmodel.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewmodel.SessionSummary{
		SessionID:    s.ID,
		Mode:         string(s.Mode),
		Phase:        s.state.Phase,
		Players:      len(s.players),
		Score:        s.state.Score,
		TournamentID: s.TournamentID,
		MatchID:      s.MatchID,
	}
}

func (s *Session) playerLocked(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) sideTakenLocked(side game.Side) bool {
	for _, p := range s.players {
		if p.Side == side {
			return true
		}
	}
	return false
}

// hasExpectedLocked reports whether seats are bound to player ids. Queue
// sessions bind them at kickoff so only the original pair can rejoin.
func (s *Session) hasExpectedLocked() bool {
	switch s.Mode {
	case ModeTournament, ModeInvitation:
		return true
	case ModeQueue:
		return s.pairedLocked()
	}
	return false
}

func (s *Session) pairedLocked() bool {
	return s.expected[0] != "" && s.expected[1] != ""
}

// bindSeatsLocked records the current occupants as the expected players.
func (s *Session) bindSeatsLocked() {
	for _, p := range s.players {
		s.expected[p.Side.Index()] = p.ID
	}
}

// pickSideLocked finds the slot for a joining player. Correlated sessions
// seat players on their expected side. Solo players always take the left
// paddle and face the AI on the right; others take the free side, using
// hint when both are free.
func (s *Session) pickSideLocked(playerID string, hint game.Side) (game.Side, error) {
	if s.hasExpectedLocked() {
		for i, id := range s.expected {
			if id == "" || id != playerID {
				continue
			}
			side := game.SideLeft
			if i == 1 {
				side = game.SideRight
			}
			if s.sideTakenLocked(side) {
				return "", ErrSessionFull
			}
			return side, nil
		}
		return "", ErrUnexpectedPlayer
	}
	if s.Mode == ModeSolo {
		hint = game.SideLeft
	}
	left := s.sideTakenLocked(game.SideLeft)
	right := s.sideTakenLocked(game.SideRight)
	switch {
	case left && right:
		return "", ErrSessionFull
	case left:
		return game.SideRight, nil
	case right:
		return game.SideLeft, nil
	case hint == game.SideRight:
		return game.SideRight, nil
	default:
		return game.SideLeft, nil
	}
}

// readyLocked reports whether the slot-filling conditions for kickoff hold.
func (s *Session) readyLocked() bool {
	switch s.Mode {
	case ModeQueue:
		return len(s.players) == 2
	case ModeTournament, ModeInvitation:
		return len(s.players) == 2 && s.expected[0] != "" && s.expected[1] != ""
	default:
		return len(s.players) >= 1
	}
}

func (s *Session) metaLocked() MatchMeta {
	return MatchMeta{
		SessionID:    s.ID,
		TournamentID: s.TournamentID,
		MatchID:      s.MatchID,
		Player1ID:    s.expected[0],
		Player2ID:    s.expected[1],
	}
}

func (s *Session) broadcastLocked() {
	msg, err := json.Marshal(viewmodel.BuildState(s.state))
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("marshal state failed")
		return
	}
	for _, p := range s.players {
		if !p.conn.Send(msg) {
			metricBroadcastsDropped.Add(1)
		}
	}
}

func (s *Session) sendLocked(p *Player, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("marshal event failed")
		return
	}
	if !p.conn.Send(msg) {
		metricBroadcastsDropped.Add(1)
	}
}
