package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

type StaffHandler struct {
	responder
	staff *services.StaffService
}

func NewStaffHandler(staff *services.StaffService, logg *logger.Logger) *StaffHandler {
	return &StaffHandler{responder: newResponder(logg), staff: staff}
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.staff.List(r.Context(), httpx.Query(r, "position"), httpx.Query(r, "keyword"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *StaffHandler) Positions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.staff.Positions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.staff.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, st)
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.StaffInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.staff.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, st)
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.StaffPatch
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.staff.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, st)
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.staff.Delete)
}

func (h *StaffHandler) Performance(w http.ResponseWriter, r *http.Request) {
	chart, err := h.staff.Performance(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, chart)
}

func (h *StaffHandler) Departments(w http.ResponseWriter, r *http.Request) {
	chart, err := h.staff.Departments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, chart)
}

func (h *StaffHandler) Page(w http.ResponseWriter, r *http.Request) {
	position := httpx.Query(r, "position")
	keyword := httpx.Query(r, "keyword")
	rows, err := h.staff.List(r.Context(), position, keyword)
	if err != nil {
		h.pageError(w, r, "staff.html", err)
		return
	}
	positions, err := h.staff.Positions(r.Context())
	if err != nil {
		h.pageError(w, r, "staff.html", err)
		return
	}
	h.page(w, r, "staff.html", map[string]any{
		"Staff":     rows,
		"Positions": positions,
		"Position":  position,
		"Keyword":   keyword,
	})
}
