// Package services holds the query construction and business rules of each
// back-office module. Services return apperr errors; handlers only translate
// HTTP in and out.
package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// base carries the dependencies every service shares.
type base struct {
	db  *gorm.DB
	log *logger.Logger
	now Clock
}

func newBase(db *gorm.DB, logg *logger.Logger) base {
	if logg == nil {
		logg = logger.Nop()
	}
	return base{db: db, log: logg, now: utcNow}
}

// SetClock overrides the service clock.
func (b *base) SetClock(now Clock) { b.now = now }

// today is midnight UTC of the current day.
func (b *base) today() time.Time {
	return dayStart(b.now())
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// growth is the percentage change from prev to cur, 0 when prev is 0.
func growth(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return round2((cur - prev) / prev * 100)
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// likePattern builds a case-insensitive LIKE argument.
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation(field, "must be a date (YYYY-MM-DD)")
	}
	return &d, nil
}

// Nullable distinguishes an absent JSON field from an explicit null. An
// empty string counts as null.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// Ptr returns the value, or nil when null.
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// Null is an explicit JSON null.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true, Null: true} }

func Value[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: v} }

// exists reports whether a row with id exists in model's table.
func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Result is the generic outcome of bulk actions.
type Result struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// Chart is the labels/data pair consumed by the dashboard charts.
type Chart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// CountBy is one bucket of a distribution.
type CountBy struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}
