package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records cart activity and order lifecycle counters.
type OrderMetrics struct {
	cartMutations  *prometheus.CounterVec
	ordersCreated  *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart state changes by operation.",
	}, []string{"operation"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted for relay.",
	}, []string{"delivery_option"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions applied.",
	}, []string{"status"})
	submitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_submit_duration_seconds",
		Help:    "Duration of order submission in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"delivery_option"})
	reg.MustRegister(cartMutations, ordersCreated, statusChanges, submitDuration)
	return &OrderMetrics{
		cartMutations:  cartMutations,
		ordersCreated:  ordersCreated,
		statusChanges:  statusChanges,
		submitDuration: submitDuration,
	}
}

// IncCartMutation increments the cart mutation counter for an operation.
func (m *OrderMetrics) IncCartMutation(operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncOrderCreated increments the submitted-orders counter.
func (m *OrderMetrics) IncOrderCreated(deliveryOption string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(deliveryOption)).Inc()
}

// IncStatusChange increments the transition counter for the new status.
func (m *OrderMetrics) IncStatusChange(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveSubmitDuration records how long an order submission took.
func (m *OrderMetrics) ObserveSubmitDuration(deliveryOption string, duration time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.WithLabelValues(normalizeLabel(deliveryOption)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
