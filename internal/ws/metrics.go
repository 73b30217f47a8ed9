package ws

import "expvar"

var (
	metricConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricConnectionsActive = expvar.NewInt("ws_connections_active")
	metricJoinRejected      = expvar.NewInt("ws_join_rejected_total")

	metricMessagesMalformed   = expvar.NewInt("ws_messages_malformed_total")
	metricMessagesRateLimited = expvar.NewInt("ws_messages_rate_limited_total")

	metricIdentityLookupFailed = expvar.NewInt("ws_identity_lookup_failed_total")
)
