package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"

	"pong-arena/internal/match"
	"pong-arena/internal/store"

	"github.com/rs/zerolog/log"
)

type MatchHandlers struct {
	registry *match.Registry
}

func NewMatchHandlers(reg *match.Registry) *MatchHandlers {
	return &MatchHandlers{registry: reg}
}

type createTournamentMatchRequest struct {
	TournamentID string `json:"tournament_id"`
	MatchID      string `json:"match_id"`
	Player1ID    string `json:"player1_id"`
	Player2ID    string `json:"player2_id"`
}

type createInvitationRequest struct {
	InviterID string `json:"inviter_id"`
	InviteeID string `json:"invitee_id"`
}

func (h *MatchHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.registry.Stats())
	}
}

// CreateTournamentMatch registers both expected players of a bracket match.
// Repeating the call returns the same session.
func (h *MatchHandlers) CreateTournamentMatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTournamentMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricBadRequests.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.TournamentID = strings.TrimSpace(req.TournamentID)
		req.MatchID = strings.TrimSpace(req.MatchID)
		req.Player1ID = strings.TrimSpace(req.Player1ID)
		req.Player2ID = strings.TrimSpace(req.Player2ID)
		if req.TournamentID == "" || req.MatchID == "" || req.Player1ID == "" || req.Player2ID == "" {
			metricBadRequests.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		if req.Player1ID == req.Player2ID {
			metricBadRequests.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "same_player")
			return
		}

		h.registry.CreateTournamentSession(req.TournamentID, req.MatchID, req.Player1ID, true)
		sess := h.registry.CreateTournamentSession(req.TournamentID, req.MatchID, req.Player2ID, false)
		metricTournamentMatchesCreated.Add(1)
		log.Info().
			Str("tournament_id", req.TournamentID).
			Str("match_id", req.MatchID).
			Str("session_id", sess.ID).
			Msg("tournament match registered")
		writeJSON(w, http.StatusCreated, map[string]any{"session_id": sess.ID})
	}
}

func (h *MatchHandlers) CreateInvitation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createInvitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricBadRequests.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.InviterID = strings.TrimSpace(req.InviterID)
		req.InviteeID = strings.TrimSpace(req.InviteeID)
		if req.InviterID == "" || req.InviteeID == "" {
			metricBadRequests.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		if req.InviterID == req.InviteeID {
			metricBadRequests.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "same_player")
			return
		}

		invitationID := store.NewID()
		sess := h.registry.CreateInvitationSession(invitationID, req.InviterID, req.InviteeID)
		metricInvitationsCreated.Add(1)
		log.Info().
			Str("invitation_id", invitationID).
			Str("session_id", sess.ID).
			Msg("invitation created")
		writeJSON(w, http.StatusCreated, map[string]any{
			"invitation_id": invitationID,
			"session_id":    sess.ID,
		})
	}
}
