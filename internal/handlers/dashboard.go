package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/services"
)

// DashboardHandler serves the sales analytics behind the dashboard page.
type DashboardHandler struct {
	responder
	dashboard *services.DashboardService
	orders    *services.OrderService
}

func NewDashboardHandler(dashboard *services.DashboardService, orders *services.OrderService, logg *logger.Logger) *DashboardHandler {
	return &DashboardHandler{responder: newResponder(logg), dashboard: dashboard, orders: orders}
}

// serve adapts a no-argument analytics query to a JSON endpoint.
func serve[T any](h responder, fetch func(*http.Request) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fetch(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, v)
	}
}

func (h *DashboardHandler) SalesSummary() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.SalesSummary, error) {
		return h.dashboard.SalesSummary(r.Context())
	})
}

func (h *DashboardHandler) TopProducts() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.TopProducts, error) {
		return h.dashboard.TopProducts(r.Context())
	})
}

func (h *DashboardHandler) SalesDistribution() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.SalesDistribution, error) {
		return h.dashboard.SalesDistribution(r.Context())
	})
}

func (h *DashboardHandler) TopDishes() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.Chart, error) {
		return h.dashboard.TopDishes(r.Context())
	})
}

func (h *DashboardHandler) Trend() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.Trend, error) {
		days, err := httpx.QueryInt(r, "days", 30, 1, 365)
		if err != nil {
			return nil, err
		}
		return h.dashboard.Trend(r.Context(), days)
	})
}

func (h *DashboardHandler) ByChannel() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.Chart, error) {
		return h.dashboard.ByChannel(r.Context())
	})
}

func (h *DashboardHandler) PeakHours() http.HandlerFunc {
	return serve(h.responder, func(r *http.Request) (*services.Chart, error) {
		return h.dashboard.PeakHours(r.Context())
	})
}

func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.PageData(r.Context(), h.orders)
	if err != nil {
		h.pageError(w, r, "dashboard.html", err)
		return
	}
	h.page(w, r, "dashboard.html", map[string]any{"Data": data})
}
