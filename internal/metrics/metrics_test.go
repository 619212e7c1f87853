package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/orders", 200, 30*time.Millisecond)
	m.Observe("GET", "/api/orders", 200, 10*time.Millisecond)
	m.Observe("POST", "", 500, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/orders", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "unknown", "500")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestBusinessMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBusinessMetrics(reg)
	m.OrderCreated("Online", 25.5)
	m.OrderCreated("", 0)
	m.OrderStatusChanged("Cancelled")
	m.SetLowStock(3)
	m.StockIn()
	m.EventPublished("order.created", nil)
	m.EventPublished("order.created", errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("Online")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("unknown")))
	assert.Equal(t, 25.5, testutil.ToFloat64(m.orderRevenue))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.lowStockItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsOutcomes.WithLabelValues("order.created", "error")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var h *HTTPMetrics
	h.Observe("GET", "/", 200, time.Second)
	b := NewBusinessMetrics(nil)
	b.OrderCreated("x", 1)
	b.SetLowStock(1)
	b.EventPublished("x", nil)
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewBusinessMetrics(reg).StockIn()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "bistro_stock_in_total 1")
}
