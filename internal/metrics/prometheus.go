package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Collectors are created eagerly so the session service can increment them
// whether or not a registry was wired; registration happens at startup.
var (
	SignInSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iam_sign_ins_success_total",
		Help: "Total number of successful sign-ins.",
	})
	SignInFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iam_sign_ins_failure_total",
		Help: "Total number of failed sign-ins.",
	})
	ActiveSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iam_active_sessions_gauge",
		Help: "Current number of live sessions.",
	})
	TokenRotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iam_token_rotations_total",
		Help: "Total number of successful token pair rotations.",
	})
	RotationConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iam_rotation_conflicts_total",
		Help: "Total number of rotations lost to a concurrent refresh.",
	})
)

// InitCustomMetrics registers the custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}
	for _, c := range []prometheus.Collector{
		SignInSuccessTotal,
		SignInFailureTotal,
		ActiveSessionsGauge,
		TokenRotationsTotal,
		RotationConflictsTotal,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register metric")
		}
	}
	log.Info().Msg("Custom Prometheus metrics registered.")
}
