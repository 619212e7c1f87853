package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/go-chi/chi/v5"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// QueryInt reads an integer query parameter within [min, max].
func QueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if v < min || v > max {
		return 0, apperr.New(apperr.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return v, nil
}

// QueryDate reads an optional YYYY-MM-DD parameter.
func QueryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid date").WithDetails(map[string]any{"field": key, "format": "YYYY-MM-DD"})
	}
	return &d, nil
}

// QueryBool reads an optional boolean parameter.
func QueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return &b, nil
}

// Query returns the trimmed query parameter.
func Query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// PathID parses the {id} route parameter.
func PathID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.CodeValidation, "invalid id").WithDetails(map[string]any{"id": raw})
	}
	return uint(id), nil
}
