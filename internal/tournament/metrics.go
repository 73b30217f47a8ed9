package tournament

import "expvar"

var (
	metricNotifyQueuedTotal  = expvar.NewInt("tournament_notify_queued_total")
	metricNotifyDroppedTotal = expvar.NewInt("tournament_notify_dropped_total")
	metricNotifySentTotal    = expvar.NewInt("tournament_notify_sent_total")
	metricNotifyFailedTotal  = expvar.NewInt("tournament_notify_failed_total")
)
