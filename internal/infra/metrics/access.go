package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		accessChangesTotal,
		revocationsScheduled,
		revocationsFired,
	)
}

var (
	accessChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_changes_total",
			Help: "Network gateway address-list changes by action (grant/revoke) and result.",
		},
		[]string{"action", "result"},
	)

	revocationsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revocations_scheduled_total",
			Help: "One-shot access revocations registered.",
		},
	)

	revocationsFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revocations_fired_total",
			Help: "One-shot access revocations that fired.",
		},
	)
)

func IncAccessChange(action string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	accessChangesTotal.WithLabelValues(norm(action), result).Inc()
}

func IncRevocationScheduled() { revocationsScheduled.Inc() }

func IncRevocationFired() { revocationsFired.Inc() }
