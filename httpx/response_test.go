package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteErrorTyped(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), logger.Nop(), rec, apperr.NotFound("dish"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "dish not found", env.Error.Message)
	assert.Nil(t, env.Error.Details)
}

func TestWriteErrorValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, apperr.Validation("price", "must be greater than 0"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, map[string]any{"price": "must be greater than 0"}, env.Error.Details)
}

func TestWriteErrorHidesInternals(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{Output: &buf})
	rec := httptest.NewRecorder()
	WriteError(context.Background(), logg, rec, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "internal server error", env.Error.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, buf.String(), "request.error")
}

func TestWriteErrorStateConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperr.New(apperr.CodeStateConflict, "purchase already received").WithDetails(map[string]any{"status": "Completed"})
	WriteError(context.Background(), nil, rec, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "purchase already received", env.Error.Message)
	assert.NotNil(t, env.Error.Details)
}

func TestWantsJSON(t *testing.T) {
	api := httptest.NewRequest("GET", "/api/orders", nil)
	assert.True(t, WantsJSON(api))

	page := httptest.NewRequest("GET", "/orders", nil)
	page.Header.Set("Accept", "text/html,application/json")
	assert.False(t, WantsJSON(page))

	client := httptest.NewRequest("GET", "/orders", nil)
	client.Header.Set("Accept", "application/json")
	assert.True(t, WantsJSON(client))
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?page=3&per_page=500&start=2024-02-30&d=2024-02-01&paid=true&bad=abc", nil)

	v, err := QueryInt(r, "page", 1, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	v, err = QueryInt(r, "missing", 15, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	_, err = QueryInt(r, "per_page", 15, 1, 100)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	_, err = QueryInt(r, "bad", 1, 1, 2)
	assert.Error(t, err)

	d, err := QueryDate(r, "d")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	_, err = QueryDate(r, "start")
	assert.Error(t, err)

	b, err := QueryBool(r, "paid")
	require.NoError(t, err)
	assert.True(t, *b)
}

func TestPathID(t *testing.T) {
	router := chi.NewRouter()
	var got uint
	var gotErr error
	router.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/things/42", nil))
	require.NoError(t, gotErr)
	assert.EqualValues(t, 42, got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/things/zero", nil))
	assert.Error(t, gotErr)
}
