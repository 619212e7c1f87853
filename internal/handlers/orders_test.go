package handlers_test

import (
	"net/http"
	"testing"

	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/handlers"
	"github.com/diewo77/go-bistro/internal/metrics"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func orderRouter(t *testing.T) (http.Handler, *gorm.DB, *events.Recorder) {
	t.Helper()
	conn := dbtest.Open(t)
	rec := &events.Recorder{}
	notify := services.NewNotifier(rec, metrics.NewBusinessMetrics(prometheus.NewRegistry()), nil)
	h := handlers.NewOrderHandler(services.NewOrderService(conn, nil, notify), nil)

	r := chi.NewRouter()
	r.Get("/api/orders", h.List)
	r.Post("/api/orders", h.Create)
	r.Get("/api/orders/{id}", h.Get)
	r.Put("/api/orders/{id}/status", h.UpdateStatus)
	r.Put("/api/orders/{id}/mark-paid", h.MarkPaid)
	r.Get("/orders", h.Page)
	return r, conn, rec
}

func TestOrderLifecycle(t *testing.T) {
	r, conn, published := orderRouter(t)
	dish := models.Dish{Name: "Fries", Category: "Sides", Price: decimal.RequireFromString("3.25"), Status: models.DishAvailable}
	require.NoError(t, conn.Create(&dish).Error)

	rec := serve(r, jsonRequest(t, http.MethodPost, "/api/orders", map[string]any{
		"channel": "Takeaway",
		"items":   []map[string]any{{"dish_id": dish.ID, "quantity": 3}},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decode[struct {
		ID          uint            `json:"id"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}](t, rec)
	assert.True(t, decimal.RequireFromString("9.75").Equal(sale.TotalAmount))

	rec = serve(r, jsonRequest(t, http.MethodPut, "/api/orders/"+itoa(sale.ID)+"/status", map[string]string{"status": "Delivered"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(r, jsonRequest(t, http.MethodPut, "/api/orders/"+itoa(sale.ID)+"/status", map[string]string{"status": "Lost"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, jsonRequest(t, http.MethodPut, "/api/orders/"+itoa(sale.ID)+"/mark-paid", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Len(t, published.Named(events.OrderCreated), 1)
	assert.Len(t, published.Named(events.OrderStatusChanged), 1)
}

func TestOrderCreateUnknownDish(t *testing.T) {
	r, _, _ := orderRouter(t)
	rec := serve(r, jsonRequest(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"dish_id": 77, "quantity": 1}},
	}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderListQueryValidation(t *testing.T) {
	r, _, _ := orderRouter(t)

	rec := serve(r, jsonRequest(t, http.MethodGet, "/api/orders?start_date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, jsonRequest(t, http.MethodGet, "/api/orders?per_page=1000", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, jsonRequest(t, http.MethodGet, "/api/orders?payment_completed=true&sort_by=total_amount&sort_order=asc", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestOrdersPageRenders(t *testing.T) {
	r, _, _ := orderRouter(t)
	rec := serve(r, formRequest(http.MethodGet, "/orders?page=1", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Commandes")
}
