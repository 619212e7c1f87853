package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

type FinanceHandler struct {
	responder
	finance *services.FinanceService
}

func NewFinanceHandler(finance *services.FinanceService, logg *logger.Logger) *FinanceHandler {
	return &FinanceHandler{responder: newResponder(logg), finance: finance}
}

func (h *FinanceHandler) Receivables(w http.ResponseWriter, r *http.Request) {
	rows, err := h.finance.Receivables(r.Context(), httpx.Query(r, "status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *FinanceHandler) Payables(w http.ResponseWriter, r *http.Request) {
	rows, err := h.finance.Payables(r.Context(), httpx.Query(r, "status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *FinanceHandler) statusBody(r *http.Request) (uint, models.SettlementStatus, error) {
	id, err := httpx.PathID(r)
	if err != nil {
		return 0, "", err
	}
	var in services.StatusInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		return 0, "", err
	}
	return id, models.SettlementStatus(in.Status), nil
}

func (h *FinanceHandler) SetReceivableStatus(w http.ResponseWriter, r *http.Request) {
	id, status, err := h.statusBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.finance.SetReceivableStatus(r.Context(), id, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rec)
}

func (h *FinanceHandler) SetPayableStatus(w http.ResponseWriter, r *http.Request) {
	id, status, err := h.statusBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pay, err := h.finance.SetPayableStatus(r.Context(), id, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, pay)
}

func (h *FinanceHandler) GenerateReceivables(w http.ResponseWriter, r *http.Request) {
	res, err := h.finance.GenerateReceivables(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *FinanceHandler) GeneratePayables(w http.ResponseWriter, r *http.Request) {
	res, err := h.finance.GeneratePayables(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.finance.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sum)
}

func (h *FinanceHandler) SeniorReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.finance.SeniorReport(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rep)
}

func (h *FinanceHandler) Page(w http.ResponseWriter, r *http.Request) {
	sum, err := h.finance.Summary(r.Context())
	if err != nil {
		h.pageError(w, r, "finance.html", err)
		return
	}
	h.page(w, r, "finance.html", map[string]any{"Summary": sum})
}
