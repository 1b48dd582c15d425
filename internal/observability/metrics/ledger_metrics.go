package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks credit ledger activity for alerting on abuse and
// upstream key exhaustion.
type LedgerMetrics struct {
	operations      *prometheus.CounterVec
	creditsMoved    *prometheus.CounterVec
	keyRotations    prometheus.Counter
	keysDeactivated prometheus.Counter
}

var (
	ledgerMetricsOnce sync.Once
	ledgerMetrics     *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them once.
func Ledger(cfg Config) *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerMetrics = newLedgerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ledgerMetrics
}

// ResetLedgerMetricsForTest clears the singleton between test registries.
func ResetLedgerMetricsForTest() {
	ledgerMetricsOnce = sync.Once{}
	ledgerMetrics = nil
}

func newLedgerMetrics(registerer prometheus.Registerer, cfg Config) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "amulet"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "amulet_ledger_operations_total",
			Help:        "Ledger operations by action and result.",
			ConstLabels: constLabels,
		},
		[]string{"action", "result"}, // check|debit|refund, ok|rejected|error
	)

	creditsMoved := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "amulet_ledger_credits_moved_total",
			Help:        "Credits debited or refunded across all licenses.",
			ConstLabels: constLabels,
		},
		[]string{"action"},
	)

	keyRotations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "amulet_api_key_rotations_total",
			Help:        "Upstream API key hand-outs.",
			ConstLabels: constLabels,
		},
	)

	keysDeactivated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "amulet_api_keys_deactivated_total",
			Help:        "Upstream API keys marked inactive.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(operations, creditsMoved, keyRotations, keysDeactivated)

	return &LedgerMetrics{
		operations:      operations,
		creditsMoved:    creditsMoved,
		keyRotations:    keyRotations,
		keysDeactivated: keysDeactivated,
	}
}

func (m *LedgerMetrics) IncOperation(action, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(action, result).Inc()
}

func (m *LedgerMetrics) AddCreditsMoved(action string, count int64) {
	if m == nil || count < 0 {
		return
	}
	m.creditsMoved.WithLabelValues(action).Add(float64(count))
}

func (m *LedgerMetrics) IncKeyRotation() {
	if m == nil {
		return
	}
	m.keyRotations.Inc()
}

func (m *LedgerMetrics) IncKeyDeactivated() {
	if m == nil {
		return
	}
	m.keysDeactivated.Inc()
}
