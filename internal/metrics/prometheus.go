package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ComparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_duel_comparisons_total",
			Help: "Comparison runs by outcome",
		},
		[]string{"status"},
	)

	ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_duel_comparison_duration_seconds",
			Help:    "End-to-end comparison run duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 120},
		},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_duel_generation_duration_seconds",
			Help:    "Generation call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"slot", "provider"},
	)

	GenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_duel_generation_failures_total",
			Help: "Generation calls that ended in sentinel error text",
		},
		[]string{"slot"},
	)

	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_duel_analysis_total",
			Help: "Analysis calls by outcome",
		},
		[]string{"outcome"},
	)

	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "llm_duel_history_entries",
			Help: "History entries held across all live sessions",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "llm_duel_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "llm_duel_breaker_state",
			Help: "Circuit breaker state per provider role (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
	StatusBusy     = "busy"

	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
)

func Init() {
	prometheus.MustRegister(ComparisonsTotal)
	prometheus.MustRegister(ComparisonDuration)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(GenerationFailures)
	prometheus.MustRegister(AnalysisTotal)
	prometheus.MustRegister(HistoryEntries)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(BreakerState)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
