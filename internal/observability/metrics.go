package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce               sync.Once
	httpDurationHistogram      *prometheus.HistogramVec
	decisionCounter            *prometheus.CounterVec
	executionDurationHistogram *prometheus.HistogramVec
	executionAttemptCounter    *prometheus.CounterVec
	ledgerImbalanceCounter     *prometheus.CounterVec
	idempotencyCounter         *prometheus.CounterVec
	workerRunCounter           *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		decisionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Decision outcomes by order type and terminal status",
		}, []string{"order_type", "status"})

		executionDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "execution_duration_seconds",
			Help:    "Money-movement executor latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"order_type", "result"})

		executionAttemptCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "execution_attempts_total",
			Help: "Executor attempts by order type",
		}, []string{"order_type"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Number of times ledger sums diverged from wallet balances",
		}, []string{"component"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency guard outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			decisionCounter,
			executionDurationHistogram,
			executionAttemptCounter,
			ledgerImbalanceCounter,
			idempotencyCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementDecision(orderType, status string) {
	if decisionCounter == nil {
		return
	}
	decisionCounter.WithLabelValues(orderType, status).Inc()
}

func ObserveExecution(orderType, result string, duration time.Duration) {
	if executionDurationHistogram == nil {
		return
	}
	executionDurationHistogram.WithLabelValues(orderType, result).Observe(duration.Seconds())
}

func IncrementExecutionAttempt(orderType string) {
	if executionAttemptCounter == nil {
		return
	}
	executionAttemptCounter.WithLabelValues(orderType).Inc()
}

func IncrementLedgerImbalance(component string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(component).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
