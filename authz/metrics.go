package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_authz_decisions_total",
	Help: "Authorization decisions by outcome",
}, []string{"decision"})
