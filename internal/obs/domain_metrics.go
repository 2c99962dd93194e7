package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillsCalculatedTotal counts bill calculations by request source.
	BillsCalculatedTotal *prometheus.CounterVec
	// BillCalculationDuration records engine latency in milliseconds.
	BillCalculationDuration *prometheus.HistogramVec
	// RuleTogglesTotal counts tax/discount enable state changes.
	RuleTogglesTotal *prometheus.CounterVec
	// OrderMutationsTotal counts order ticket mutations by operation.
	OrderMutationsTotal *prometheus.CounterVec
	// MenuCacheTotal counts menu cache lookups by outcome.
	MenuCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillsCalculatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_calculated_total",
			Help:      "Count of bill calculations by source.",
		}, []string{"source"})
		BillCalculationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_calculation_duration_ms",
			Help:      "Bill calculation latency in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"})
		RuleTogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_toggles_total",
			Help:      "Count of tax and discount rule toggles.",
		}, []string{"kind", "state"})
		OrderMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_mutations_total",
			Help:      "Count of order ticket mutations by operation.",
		}, []string{"op"})
		MenuCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_cache_total",
			Help:      "Count of menu cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, BillsCalculatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillsCalculatedTotal = v
			}
		})
		mustRegisterCollector(reg, BillCalculationDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				BillCalculationDuration = v
			}
		})
		mustRegisterCollector(reg, RuleTogglesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RuleTogglesTotal = v
			}
		})
		mustRegisterCollector(reg, OrderMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, MenuCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MenuCacheTotal = v
			}
		})
	})
}

// ObserveBill records one calculation. It is a no-op until metrics are registered.
func ObserveBill(source string, d time.Duration) {
	if BillsCalculatedTotal != nil {
		BillsCalculatedTotal.WithLabelValues(source).Inc()
	}
	if BillCalculationDuration != nil {
		BillCalculationDuration.WithLabelValues(source).Observe(DurationMillis(d))
	}
}

// CountRuleToggle records an enable state change for a rule kind ("tax" or "discount").
func CountRuleToggle(kind string, enabled bool) {
	if RuleTogglesTotal == nil {
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	RuleTogglesTotal.WithLabelValues(kind, state).Inc()
}

// CountOrderMutation records an order ticket mutation.
func CountOrderMutation(op string) {
	if OrderMutationsTotal != nil {
		OrderMutationsTotal.WithLabelValues(op).Inc()
	}
}

// CountMenuCache records a menu cache lookup outcome ("hit", "miss", "error").
func CountMenuCache(result string) {
	if MenuCacheTotal != nil {
		MenuCacheTotal.WithLabelValues(result).Inc()
	}
}
