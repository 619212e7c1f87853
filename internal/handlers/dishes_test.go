package handlers_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/handlers"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dishJSON struct {
	ID            uint             `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Category      string           `json:"category"`
	Status        string           `json:"status"`
}

func dishRouter(t *testing.T) http.Handler {
	t.Helper()
	h := handlers.NewDishHandler(services.NewDishService(dbtest.Open(t), nil), nil)
	r := chi.NewRouter()
	r.Get("/api/dishes", h.Menu)
	r.Get("/api/products", h.List)
	r.Post("/api/products", h.Create)
	r.Get("/api/products/export", h.Export)
	r.Get("/api/products/categories", h.ProductCategories)
	r.Get("/api/products/bestsellers", h.Bestsellers)
	r.Get("/api/products/{id}", h.Get)
	r.Put("/api/products/{id}", h.Update)
	r.Delete("/api/products/{id}", h.Delete)
	r.Get("/menu", h.MenuPage)
	return r
}

func TestDishCRUD(t *testing.T) {
	r := dishRouter(t)

	rec := serve(r, jsonRequest(t, http.MethodPost, "/api/products", map[string]any{
		"name": "Margherita", "price": 9.5, "category": "Pizza",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dishJSON](t, rec)
	assert.Equal(t, "Available", created.Status)
	assert.True(t, decimal.RequireFromString("9.50").Equal(created.Price))

	rec = serve(r, jsonRequest(t, http.MethodPut, "/api/products/1", map[string]any{"discount_price": 8}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dishJSON](t, rec)
	require.NotNil(t, updated.DiscountPrice)
	assert.True(t, decimal.NewFromInt(8).Equal(*updated.DiscountPrice))
	assert.Equal(t, "Margherita", updated.Name)

	rec = serve(r, jsonRequest(t, http.MethodPut, "/api/products/1", map[string]any{"discount_price": nil}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[dishJSON](t, rec).DiscountPrice)

	rec = serve(r, jsonRequest(t, http.MethodGet, "/api/products?search=marg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dishJSON](t, rec), 1)

	rec = serve(r, jsonRequest(t, http.MethodDelete, "/api/products/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = serve(r, jsonRequest(t, http.MethodGet, "/api/products/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDishRejectsInvalidInput(t *testing.T) {
	r := dishRouter(t)

	rec := serve(r, jsonRequest(t, http.MethodPost, "/api/products", map[string]any{"name": "", "price": -1}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[apiError](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Details, "name")
	assert.Contains(t, body.Error.Details, "price")
}

func TestDishPathIDMustBePositive(t *testing.T) {
	r := dishRouter(t)
	rec := serve(r, jsonRequest(t, http.MethodGet, "/api/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBestsellersQueryBounds(t *testing.T) {
	r := dishRouter(t)

	rec := serve(r, jsonRequest(t, http.MethodGet, "/api/products/bestsellers", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, jsonRequest(t, http.MethodGet, "/api/products/bestsellers?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportDishesCSV(t *testing.T) {
	r := dishRouter(t)
	for _, name := range []string{"Calzone", "Tiramisu"} {
		rec := serve(r, jsonRequest(t, http.MethodPost, "/api/products", map[string]any{"name": name, "price": 7}))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := serve(r, jsonRequest(t, http.MethodGet, "/api/products/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="products_`)

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Name", "Category", "Price", "Description", "Status", "Image"}, rows[0])
	assert.Equal(t, "Calzone", rows[1][1])
	assert.Equal(t, "7.00", rows[2][3])
}

func TestMenuPageRendersSections(t *testing.T) {
	r := dishRouter(t)
	rec := serve(r, jsonRequest(t, http.MethodPost, "/api/products", map[string]any{"name": "Caesar", "price": 6, "category": "Salad"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(r, formRequest(http.MethodGet, "/menu", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Caesar")
	assert.Contains(t, rec.Body.String(), "6.00")
}
