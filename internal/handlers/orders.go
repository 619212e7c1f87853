package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

type OrderHandler struct {
	responder
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService, logg *logger.Logger) *OrderHandler {
	return &OrderHandler{responder: newResponder(logg), orders: orders}
}

// orderQuery reads the listing filters shared by the API and the page.
func orderQuery(r *http.Request) (services.OrderQuery, error) {
	var q services.OrderQuery
	var err error
	if q.Page, err = httpx.QueryInt(r, "page", 1, 1, 1<<31-1); err != nil {
		return q, err
	}
	if q.PerPage, err = httpx.QueryInt(r, "per_page", services.DefaultPerPage, 1, services.MaxPerPage); err != nil {
		return q, err
	}
	if q.Start, err = httpx.QueryDate(r, "start_date"); err != nil {
		return q, err
	}
	if q.End, err = httpx.QueryDate(r, "end_date"); err != nil {
		return q, err
	}
	if q.PaymentCompleted, err = httpx.QueryBool(r, "payment_completed"); err != nil {
		return q, err
	}
	q.SortBy = httpx.Query(r, "sort_by")
	q.SortOrder = httpx.Query(r, "sort_order")
	q.Status = httpx.Query(r, "status")
	q.Channel = httpx.Query(r, "channel")
	return q, nil
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := orderQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.orders.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, page)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	detail, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, detail)
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.OrderInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.orders.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, sale)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.StatusInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.orders.UpdateStatus(r.Context(), id, models.SaleStatus(in.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sale)
}

func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.orders.MarkPaid(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *OrderHandler) Page(w http.ResponseWriter, r *http.Request) {
	q, err := orderQuery(r)
	if err != nil {
		h.pageError(w, r, "orders.html", err)
		return
	}
	page, err := h.orders.List(r.Context(), q)
	if err != nil {
		h.pageError(w, r, "orders.html", err)
		return
	}
	h.page(w, r, "orders.html", map[string]any{
		"Page":     page,
		"Query":    q,
		"Statuses": models.SaleStatuses,
	})
}
