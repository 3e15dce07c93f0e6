package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	BountyClaimTotal           = "bounty_claim_total"
	SettlementTotal            = "settlement_total"
	EventRegistrationTotal     = "event_registration_total"
	WithdrawalTotal            = "withdrawal_total"
	LockTimeoutTotal           = "lock_timeout_total"
	InvariantViolationTotal    = "invariant_violation_total"
	LockWaitSeconds            = "lock_wait_seconds"
	CronJobDurationSeconds     = "cron_job_duration_seconds"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		BountyClaimTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: BountyClaimTotal,
			Help: "Count of bounty claim attempts by result",
		}, []string{"result"}),
		SettlementTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: SettlementTotal,
			Help: "Count of winner selections by result",
		}, []string{"result"}),
		EventRegistrationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventRegistrationTotal,
			Help: "Count of event registration attempts by result",
		}, []string{"result"}),
		WithdrawalTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: WithdrawalTotal,
			Help: "Count of withdrawals by result",
		}, []string{"result"}),
		LockTimeoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: LockTimeoutTotal,
			Help: "Count of lock acquisitions which timed out",
		}, []string{"aggregate"}),
		InvariantViolationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: InvariantViolationTotal,
			Help: "Count of detected invariant violations",
		}, []string{"invariant"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
		LockWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    LockWaitSeconds,
			Help:    "Time spent waiting for aggregate locks",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3},
		}, []string{"aggregate"}),
		CronJobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: CronJobDurationSeconds,
			Help: "Duration of cron job runs",
		}, []string{"job"}),
	}
)

func IncCounter(name string, labels ...string) {
	if counter, ok := PromCounters[name]; ok {
		counter.WithLabelValues(labels...).Inc()
	}
}

func ObserveHistogram(name string, value float64, labels ...string) {
	if histogram, ok := PromHistograms[name]; ok {
		histogram.WithLabelValues(labels...).Observe(value)
	}
}
