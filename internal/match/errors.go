package match

import "errors"

var (
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrSessionFull       = errors.New("session_full")
	ErrUnexpectedPlayer  = errors.New("unexpected_player")
	ErrInvalidPhase      = errors.New("invalid_phase")
	ErrOpponentMissing   = errors.New("opponent_missing")
	ErrNotLocalSession   = errors.New("not_local_session")
	ErrRematchNotAllowed = errors.New("rematch_not_allowed")
)
