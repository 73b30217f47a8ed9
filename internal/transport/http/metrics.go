package httptransport

import "expvar"

var (
	metricTournamentMatchesCreated = expvar.NewInt("http_tournament_matches_created_total")
	metricInvitationsCreated       = expvar.NewInt("http_invitations_created_total")
	metricBadRequests              = expvar.NewInt("http_bad_requests_total")
)
