package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BusinessMetrics counts restaurant activity.
type BusinessMetrics struct {
	ordersCreated  *prometheus.CounterVec
	orderRevenue   prometheus.Counter
	statusChanges  *prometheus.CounterVec
	lowStockItems  prometheus.Gauge
	stockIns       prometheus.Counter
	eventsOutcomes *prometheus.CounterVec
}

func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	if reg == nil {
		return &BusinessMetrics{}
	}
	m := &BusinessMetrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bistro_orders_created_total",
			Help: "Orders created by channel.",
		}, []string{"channel"}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bistro_order_amount_total",
			Help: "Sum of created order totals.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bistro_order_status_changes_total",
			Help: "Order status transitions by target status.",
		}, []string{"status"}),
		lowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bistro_low_stock_items",
			Help: "Inventory rows at or below their reorder level at the last check.",
		}),
		stockIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bistro_stock_in_total",
			Help: "Stock-in receipts recorded.",
		}),
		eventsOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bistro_events_published_total",
			Help: "Domain events by name and result.",
		}, []string{"event", "result"}),
	}
	reg.MustRegister(m.ordersCreated, m.orderRevenue, m.statusChanges, m.lowStockItems, m.stockIns, m.eventsOutcomes)
	return m
}

func (m *BusinessMetrics) OrderCreated(channel string, amount float64) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(channel)).Inc()
	if amount > 0 {
		m.orderRevenue.Add(amount)
	}
}

func (m *BusinessMetrics) OrderStatusChanged(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *BusinessMetrics) SetLowStock(n int) {
	if m == nil || m.lowStockItems == nil {
		return
	}
	m.lowStockItems.Set(float64(n))
}

func (m *BusinessMetrics) StockIn() {
	if m == nil || m.stockIns == nil {
		return
	}
	m.stockIns.Inc()
}

func (m *BusinessMetrics) EventPublished(name string, err error) {
	if m == nil || m.eventsOutcomes == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsOutcomes.WithLabelValues(normalizeLabel(name), result).Inc()
}
