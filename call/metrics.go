package call

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	autoPickupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warden_call_auto_pickups_total",
		Help: "Ring timers that expired and attempted auto pickup",
	})
	pickupsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warden_call_pickups_rejected_total",
		Help: "Auto pickups denied by the authorization engine",
	})
)
