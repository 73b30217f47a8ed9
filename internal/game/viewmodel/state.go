package viewmodel

import "pong-arena/internal/game"

type PaddlesView struct {
	Left  game.Paddle `json:"left"`
	Right game.Paddle `json:"right"`
}

// StateView is the outbound `state` event.
type StateView struct {
	Type      string      `json:"type"`
	Phase     game.Phase  `json:"phase"`
	EndReason string      `json:"endReason,omitempty"`
	Ball      game.Ball   `json:"ball"`
	Paddles   PaddlesView `json:"paddles"`
	Score     game.Score  `json:"score"`
}

func BuildState(st *game.State) StateView {
	view := StateView{
		Type:  "state",
		Phase: st.Phase,
		Ball:  st.Ball,
		Paddles: PaddlesView{
			Left:  st.Paddles[0],
			Right: st.Paddles[1],
		},
		Score: st.Score,
	}
	if st.Phase == game.PhaseEnded {
		view.EndReason = string(st.EndReason)
	}
	return view
}

// SessionSummary is the read-only view of a session used by HTTP queries.
type SessionSummary struct {
	SessionID    string     `json:"session_id"`
	Mode         string     `json:"mode"`
	Phase        game.Phase `json:"phase"`
	Players      int        `json:"players"`
	Score        game.Score `json:"score"`
	TournamentID string     `json:"tournament_id,omitempty"`
	MatchID      string     `json:"match_id,omitempty"`
}

// Connected is sent once to a player after slot assignment.
type Connected struct {
	Type      string    `json:"type"`
	PlayerID  string    `json:"playerId"`
	SessionID string    `json:"sessionId"`
	Side      game.Side `json:"side"`
}

func BuildConnected(playerID, sessionID string, side game.Side) Connected {
	return Connected{Type: "connected", PlayerID: playerID, SessionID: sessionID, Side: side}
}
