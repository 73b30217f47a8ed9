package match

import "expvar"

var (
	metricSessionsCreated = expvar.NewInt("match_sessions_created_total")
	metricSessionsActive  = expvar.NewInt("match_sessions_active")
	metricSessionsExpired = expvar.NewInt("match_sessions_expired_total")

	metricTicksTotal        = expvar.NewInt("match_ticks_total")
	metricBroadcastsDropped = expvar.NewInt("match_broadcasts_dropped_total")

	metricMatchesEnded = expvar.NewInt("match_matches_ended_total")
	metricForfeits     = expvar.NewInt("match_forfeits_total")
)
