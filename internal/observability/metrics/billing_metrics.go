package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics tracks the unattended batch jobs: invoice generation and
// the overdue sweep.
type BillingMetrics struct {
	jobRuns           *prometheus.CounterVec
	invoicesGenerated prometheus.Counter
	invoicesSwept     prometheus.Counter
	itemFailures      *prometheus.CounterVec
	pendingBacklog    prometheus.Gauge
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the process-wide billing metrics, registering them on
// first use.
func Billing(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest clears the singleton between test binaries.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "ataboard"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "ataboard_billing_job_runs_total",
			Help:        "Batch job executions by job and result.",
			ConstLabels: constLabels,
		},
		[]string{"job", "result"}, // job: generate|sweep, result: ok|error
	)

	invoicesGenerated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "ataboard_invoices_generated_total",
			Help:        "Invoices created by the period generator.",
			ConstLabels: constLabels,
		},
	)

	invoicesSwept := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "ataboard_invoices_swept_total",
			Help:        "Invoices promoted to overdue by the sweeper.",
			ConstLabels: constLabels,
		},
	)

	itemFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "ataboard_billing_item_failures_total",
			Help:        "Per-item failures inside batch jobs.",
			ConstLabels: constLabels,
		},
		[]string{"job"},
	)

	pendingBacklog := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "ataboard_invoices_pending_total",
			Help:        "Pending invoices observed at the last sweep.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(
		jobRuns,
		invoicesGenerated,
		invoicesSwept,
		itemFailures,
		pendingBacklog,
	)

	return &BillingMetrics{
		jobRuns:           jobRuns,
		invoicesGenerated: invoicesGenerated,
		invoicesSwept:     invoicesSwept,
		itemFailures:      itemFailures,
		pendingBacklog:    pendingBacklog,
	}
}

func (m *BillingMetrics) ObserveJobRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

func (m *BillingMetrics) AddInvoicesGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesGenerated.Add(float64(n))
}

func (m *BillingMetrics) AddInvoicesSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesSwept.Add(float64(n))
}

func (m *BillingMetrics) AddItemFailures(job string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemFailures.WithLabelValues(job).Add(float64(n))
}

func (m *BillingMetrics) SetPendingBacklog(n int) {
	if m == nil {
		return
	}
	m.pendingBacklog.Set(float64(n))
}
