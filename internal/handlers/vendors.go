package handlers

import (
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

// VendorHandler covers suppliers, delivery platforms, maintenance providers
// and purchase orders.
type VendorHandler struct {
	responder
	vendors   *services.VendorService
	purchases *services.PurchaseService
}

func NewVendorHandler(vendors *services.VendorService, purchases *services.PurchaseService, logg *logger.Logger) *VendorHandler {
	return &VendorHandler{responder: newResponder(logg), vendors: vendors, purchases: purchases}
}

func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vendors.List(r.Context(), httpx.Query(r, "search"), httpx.Query(r, "type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.vendors.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, v)
}

func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.VendorInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.vendors.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, v)
}

func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.VendorPatch
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.vendors.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, v)
}

func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.vendors.Delete)
}

func (h *VendorHandler) CreatePayable(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.PayableInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.CreatePayable(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, p)
}

func (h *VendorHandler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vendors.ListPlatforms(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *VendorHandler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.GetPlatform(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

func (h *VendorHandler) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	var in services.PlatformInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.CreatePlatform(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, p)
}

func (h *VendorHandler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.PlatformInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.UpdatePlatform(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

func (h *VendorHandler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.vendors.DeletePlatform)
}

func (h *VendorHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vendors.ListProviders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *VendorHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.GetProvider(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

func (h *VendorHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var in services.ProviderInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.CreateProvider(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, p)
}

func (h *VendorHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in services.ProviderInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.vendors.UpdateProvider(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

func (h *VendorHandler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.vendors.DeleteProvider)
}

func (h *VendorHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	vendorID, err := httpx.QueryInt(r, "vendor_id", 0, 0, 1<<31-1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.purchases.List(r.Context(), httpx.Query(r, "status"), uint(vendorID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rows)
}

func (h *VendorHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.purchases.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

func (h *VendorHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var in services.PurchaseInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.purchases.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, p)
}

func (h *VendorHandler) ReceivePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.purchases.Receive(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

func (h *VendorHandler) Page(w http.ResponseWriter, r *http.Request) {
	search := httpx.Query(r, "search")
	vendorType := httpx.Query(r, "type")
	vendors, err := h.vendors.List(r.Context(), search, vendorType)
	if err != nil {
		h.pageError(w, r, "vendors.html", err)
		return
	}
	purchases, err := h.purchases.List(r.Context(), "", 0)
	if err != nil {
		h.pageError(w, r, "vendors.html", err)
		return
	}
	platforms, err := h.vendors.ListPlatforms(r.Context())
	if err != nil {
		h.pageError(w, r, "vendors.html", err)
		return
	}
	providers, err := h.vendors.ListProviders(r.Context())
	if err != nil {
		h.pageError(w, r, "vendors.html", err)
		return
	}
	h.page(w, r, "vendors.html", map[string]any{
		"Vendors":   vendors,
		"Purchases": purchases,
		"Platforms": platforms,
		"Providers": providers,
		"Search":    search,
		"Type":      vendorType,
	})
}
