package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

// InventoryHandler covers raw items, stock levels and the buy list.
type InventoryHandler struct {
	responder
	items     *services.ItemService
	inventory *services.InventoryService
}

func NewInventoryHandler(items *services.ItemService, inventory *services.InventoryService, logg *logger.Logger) *InventoryHandler {
	return &InventoryHandler{responder: newResponder(logg), items: items, inventory: inventory}
}

func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	rows, err := h.items.List(r.Context(), httpx.Query(r, "category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in services.ItemInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.items.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, item)
}

func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.ItemPatch
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.items.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, item)
}

func (h *InventoryHandler) ItemCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.items.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, cats)
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inventory.List(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inventory.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.InventoryInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	row, err := h.inventory.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, row)
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.InventoryPatch
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	row, err := h.inventory.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, row)
}

func (h *InventoryHandler) StockIn(w http.ResponseWriter, r *http.Request) {
	var in services.StockInInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.inventory.StockIn(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *InventoryHandler) Vendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.inventory.Vendors(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, vendors)
}

func (h *InventoryHandler) BuyList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inventory.BuyList(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *InventoryHandler) ItemsPage(w http.ResponseWriter, r *http.Request) {
	category := httpx.Query(r, "category")
	rows, err := h.items.List(r.Context(), category)
	if err != nil {
		h.pageError(w, r, "items.html", err)
		return
	}
	cats, err := h.items.Categories(r.Context())
	if err != nil {
		h.pageError(w, r, "items.html", err)
		return
	}
	h.page(w, r, "items.html", map[string]any{"Items": rows, "Categories": cats, "Category": category})
}

// InventoryPage optionally narrows the stock table to one item.
func (h *InventoryHandler) InventoryPage(w http.ResponseWriter, r *http.Request) {
	itemID, err := httpx.QueryInt(r, "item_id", 0, 0, 1<<31-1)
	if err != nil {
		h.pageError(w, r, "inventory.html", err)
		return
	}
	rows, err := h.inventory.List(r.Context(), uint(itemID))
	if err != nil {
		h.pageError(w, r, "inventory.html", err)
		return
	}
	low, err := h.inventory.LowStock(r.Context())
	if err != nil {
		h.pageError(w, r, "inventory.html", err)
		return
	}
	buys, err := h.inventory.BuyList(r.Context())
	if err != nil {
		h.pageError(w, r, "inventory.html", err)
		return
	}
	h.page(w, r, "inventory.html", map[string]any{
		"Rows":    rows,
		"Low":     low,
		"BuyList": buys,
		"ItemID":  itemID,
	})
}
