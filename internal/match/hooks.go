package match

import "pong-arena/internal/game"

// MatchMeta correlates a session with the external tournament coordinator.
type MatchMeta struct {
	SessionID    string
	TournamentID string
	MatchID      string
	Player1ID    string
	Player2ID    string
}

// Hooks receives match lifecycle events for tournament-bound sessions.
// Implementations must not block; they are called from the tick loop.
type Hooks interface {
	MatchStarted(meta MatchMeta)
	ScoreUpdated(meta MatchMeta, score game.Score)
	MatchEnded(meta MatchMeta, score game.Score, reason game.EndReason)
}

type noopHooks struct{}

func (noopHooks) MatchStarted(MatchMeta) {}
func (noopHooks) ScoreUpdated(MatchMeta, game.Score) {}
func (noopHooks) MatchEnded(MatchMeta, game.Score, game.EndReason) {}
