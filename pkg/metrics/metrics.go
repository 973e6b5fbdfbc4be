package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the farm's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// TicksTotal counts scheduler iterations
	TicksTotal prometheus.Counter
	// DueWallets is the size of the last due set
	DueWallets prometheus.Gauge
	// GasBlockedTotal counts ticks skipped by the gas ceiling
	GasBlockedTotal prometheus.Counter
	// GasPriceGwei is the last observed reference gas price
	GasPriceGwei prometheus.Gauge
	// ActionsTotal counts action outcomes per type and kind
	ActionsTotal *prometheus.CounterVec
	// WithdrawalsTotal counts top-up requests by result
	WithdrawalsTotal *prometheus.CounterVec
	// TaskDuration tracks per-wallet task latency
	TaskDuration prometheus.Histogram
	// PanicsTotal counts recovered task panics
	PanicsTotal prometheus.Counter
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hyperfarm_ticks_total",
			Help: "Total number of scheduler iterations",
		}),
		DueWallets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyperfarm_due_wallets",
			Help: "Number of wallets due in the last iteration",
		}),
		GasBlockedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hyperfarm_gas_blocked_total",
			Help: "Total number of iterations skipped because gas was above the ceiling",
		}),
		GasPriceGwei: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyperfarm_gas_price_gwei",
			Help: "Last observed gas price on the reference network",
		}),
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hyperfarm_actions_total",
			Help: "Total number of executed actions by outcome",
		}, []string{"action", "outcome"}),
		WithdrawalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hyperfarm_withdrawals_total",
			Help: "Total number of exchange withdrawal requests",
		}, []string{"result"}),
		TaskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hyperfarm_task_duration_seconds",
			Help:    "Per-wallet task duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		PanicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hyperfarm_task_panics_total",
			Help: "Total number of recovered panics in wallet tasks",
		}),
	}
}

func (m *Metrics) Tick(due int) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.DueWallets.Set(float64(due))
}

func (m *Metrics) GasPrice(gwei float64, blocked bool) {
	if m == nil {
		return
	}
	m.GasPriceGwei.Set(gwei)
	if blocked {
		m.GasBlockedTotal.Inc()
	}
}

func (m *Metrics) Action(action, outcome string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Withdrawal(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.WithdrawalsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) TaskDone(started time.Time) {
	if m == nil {
		return
	}
	m.TaskDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) Panic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}
