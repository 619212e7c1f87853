package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

// DishHandler serves the public menu endpoints and the product management
// endpoints over the same dishes.
type DishHandler struct {
	responder
	dishes *services.DishService
	now    func() time.Time
}

func NewDishHandler(dishes *services.DishService, logg *logger.Logger) *DishHandler {
	return &DishHandler{responder: newResponder(logg), dishes: dishes, now: time.Now}
}

// Menu lists available dishes, optionally in one category.
func (h *DishHandler) Menu(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.dishes.List(r.Context(), services.DishFilter{
		Category:      httpx.Query(r, "category"),
		AvailableOnly: true,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, dishes)
}

func (h *DishHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.dishes.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, cats)
}

func (h *DishHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dish, err := h.dishes.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, dish)
}

// List is the management listing: every status, with search.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.dishes.List(r.Context(), services.DishFilter{
		Category: httpx.Query(r, "category"),
		Search:   httpx.Query(r, "search"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, dishes)
}

// ProductCategories returns the fixed category list used by the forms.
func (h *DishHandler) ProductCategories(w http.ResponseWriter, r *http.Request) {
	h.ok(w, models.DishCategories)
}

func (h *DishHandler) Bestsellers(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 30, 1, 365)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", 5, 1, 50)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.dishes.Bestsellers(r.Context(), days, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *DishHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dishes.CategoryStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, stats)
}

func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.DishInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	dish, err := h.dishes.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, dish)
}

func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.DishPatch
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	dish, err := h.dishes.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, dish)
}

func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.dishes.Delete)
}

// Export serves every dish as a CSV attachment.
func (h *DishHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.dishes.ExportCSV(r.Context(), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.ExportFilename(h.now())+`"`)
	_, _ = buf.WriteTo(w)
}

// MenuPage renders the available dishes grouped by category.
func (h *DishHandler) MenuPage(w http.ResponseWriter, r *http.Request) {
	sections, err := h.dishes.Menu(r.Context())
	if err != nil {
		h.pageError(w, r, "menu.html", err)
		return
	}
	h.page(w, r, "menu.html", map[string]any{"Sections": sections})
}

func (h *DishHandler) ProductsPage(w http.ResponseWriter, r *http.Request) {
	search := httpx.Query(r, "search")
	category := httpx.Query(r, "category")
	dishes, err := h.dishes.List(r.Context(), services.DishFilter{Category: category, Search: search})
	if err != nil {
		h.pageError(w, r, "products.html", err)
		return
	}
	stats, err := h.dishes.CategoryStats(r.Context())
	if err != nil {
		h.pageError(w, r, "products.html", err)
		return
	}
	h.page(w, r, "products.html", map[string]any{
		"Dishes":     dishes,
		"Stats":      stats,
		"Categories": models.DishCategories,
		"Search":     search,
		"Category":   category,
	})
}
