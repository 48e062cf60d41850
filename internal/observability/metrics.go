// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	PairsScanned       *prometheus.CounterVec
	OpportunitiesFound *prometheus.CounterVec
	NormalizerSkips    *prometheus.CounterVec

	// Prediction metrics
	PredictionsEmitted *prometheus.CounterVec

	// Execution metrics
	GateRejections     *prometheus.CounterVec
	PositionsOpened    prometheus.Counter
	PositionsClosed    *prometheus.CounterVec
	SettlementFailures *prometheus.CounterVec

	// Scheduler metrics
	TaskRuns     *prometheus.CounterVec
	TaskErrors   *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec

	// State gauges
	LiveOpportunities prometheus.Gauge
	LivePredictions   prometheus.Gauge
	OpenPositions     prometheus.Gauge
	AccountBalance    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}

	return &Metrics{
		// Ingestion metrics
		PairsScanned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "pairs_scanned_total",
			Help:      "Total number of raw pairs seen per feed",
		}, []string{"source"}),
		OpportunitiesFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "opportunities_found_total",
			Help:      "Total number of opportunities admitted by source and type",
		}, []string{"source", "type"}),
		NormalizerSkips: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "normalizer_skips_total",
			Help:      "Total number of raw pairs dropped by reason",
		}, []string{"source", "reason"}),

		// Prediction metrics
		PredictionsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "emitted_total",
			Help:      "Total number of predictions emitted by action",
		}, []string{"action"}),

		// Execution metrics
		GateRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "gate_rejections_total",
			Help:      "Total number of candidates rejected by gate",
		}, []string{"gate"}),
		PositionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "positions_opened_total",
			Help:      "Total number of positions opened",
		}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "positions_closed_total",
			Help:      "Total number of positions closed by exit reason",
		}, []string{"reason"}),
		SettlementFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "settlement_failures_total",
			Help:      "Total number of failed settlement attempts by side",
		}, []string{"side"}),

		// Scheduler metrics
		TaskRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Total number of task runs by status",
		}, []string{"task", "status"}),
		TaskErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_errors_total",
			Help:      "Total number of task errors",
		}, []string{"task"}),
		TaskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),

		// State gauges
		LiveOpportunities: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "live_opportunities",
			Help:      "Current number of live opportunity records",
		}),
		LivePredictions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "live_predictions",
			Help:      "Current number of live prediction records",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		AccountBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "account_balance",
			Help:      "Current account balance",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPairsScanned adds to the scanned pair counter for a feed.
func (m *Metrics) RecordPairsScanned(source string, count int) {
	m.PairsScanned.WithLabelValues(source).Add(float64(count))
}

// RecordOpportunityFound increments the admitted opportunity counter.
func (m *Metrics) RecordOpportunityFound(source, oppType string) {
	m.OpportunitiesFound.WithLabelValues(source, oppType).Inc()
}

// RecordNormalizerSkip increments the dropped pair counter.
func (m *Metrics) RecordNormalizerSkip(source, reason string) {
	m.NormalizerSkips.WithLabelValues(source, reason).Inc()
}

// RecordPrediction increments the emitted prediction counter.
func (m *Metrics) RecordPrediction(action string) {
	m.PredictionsEmitted.WithLabelValues(action).Inc()
}

// RecordGateRejection increments the gate rejection counter.
func (m *Metrics) RecordGateRejection(gate string) {
	m.GateRejections.WithLabelValues(gate).Inc()
}

// RecordPositionOpened increments the opened position counter.
func (m *Metrics) RecordPositionOpened() {
	m.PositionsOpened.Inc()
}

// RecordPositionClosed increments the closed position counter.
func (m *Metrics) RecordPositionClosed(reason string) {
	m.PositionsClosed.WithLabelValues(reason).Inc()
}

// RecordSettlementFailure increments the settlement failure counter.
func (m *Metrics) RecordSettlementFailure(side string) {
	m.SettlementFailures.WithLabelValues(side).Inc()
}

// RecordTaskRun records one scheduler task run.
func (m *Metrics) RecordTaskRun(task string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.TaskErrors.WithLabelValues(task).Inc()
	}
	m.TaskRuns.WithLabelValues(task, status).Inc()
	m.TaskDuration.WithLabelValues(task).Observe(seconds)
}

// UpdateStateGauges refreshes the live record gauges.
func (m *Metrics) UpdateStateGauges(opportunities, predictions, positions int, balance float64) {
	m.LiveOpportunities.Set(float64(opportunities))
	m.LivePredictions.Set(float64(predictions))
	m.OpenPositions.Set(float64(positions))
	m.AccountBalance.Set(balance)
}
