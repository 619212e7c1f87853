package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

// CustomerHandler covers customers and their feedback.
type CustomerHandler struct {
	responder
	customers *services.CustomerService
	feedback  *services.FeedbackService
}

func NewCustomerHandler(customers *services.CustomerService, feedback *services.FeedbackService, logg *logger.Logger) *CustomerHandler {
	return &CustomerHandler{responder: newResponder(logg), customers: customers, feedback: feedback}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.customers.List(r.Context(), httpx.Query(r, "mem_level"), httpx.Query(r, "search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, c)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CustomerInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.customers.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.CustomerPatch
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.customers.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.customers.Delete)
}

func (h *CustomerHandler) Segments(w http.ResponseWriter, r *http.Request) {
	segs, err := h.customers.Segments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, segs)
}

func (h *CustomerHandler) Inactive(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", services.DefaultInactiveDays, 1, 3650)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.customers.Inactive(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *CustomerHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	rating, err := httpx.QueryInt(r, "rating", 0, 0, 5)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.feedback.List(r.Context(), httpx.Query(r, "status"), rating)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *CustomerHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var in services.FeedbackInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	fb, err := h.feedback.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, fb)
}

func (h *CustomerHandler) SetFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.FeedbackStatusInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	fb, err := h.feedback.SetStatus(r.Context(), id, in.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, fb)
}

func (h *CustomerHandler) FeedbackSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.feedback.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sum)
}

func (h *CustomerHandler) Page(w http.ResponseWriter, r *http.Request) {
	memLevel := httpx.Query(r, "mem_level")
	search := httpx.Query(r, "search")
	rows, err := h.customers.List(r.Context(), memLevel, search)
	if err != nil {
		h.pageError(w, r, "customers.html", err)
		return
	}
	segs, err := h.customers.Segments(r.Context())
	if err != nil {
		h.pageError(w, r, "customers.html", err)
		return
	}
	h.page(w, r, "customers.html", map[string]any{
		"Customers": rows,
		"Segments":  segs,
		"Levels":    models.MemLevels,
		"MemLevel":  memLevel,
		"Search":    search,
	})
}

func (h *CustomerHandler) FeedbackPage(w http.ResponseWriter, r *http.Request) {
	status := httpx.Query(r, "status")
	rows, err := h.feedback.List(r.Context(), status, 0)
	if err != nil {
		h.pageError(w, r, "feedback.html", err)
		return
	}
	sum, err := h.feedback.Summary(r.Context())
	if err != nil {
		h.pageError(w, r, "feedback.html", err)
		return
	}
	h.page(w, r, "feedback.html", map[string]any{"Feedback": rows, "Summary": sum, "Status": status})
}
