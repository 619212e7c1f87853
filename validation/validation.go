// Package validation checks request payloads. JSON bodies go through
// go-playground/validator; HTML forms use the Violations helpers.
package validation

import (
	"strings"

	"github.com/diewo77/go-bistro/internal/apperr"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err converts the violations into a VALIDATION_ERROR, or nil when empty.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	details := make(map[string]string, len(v))
	for k, msg := range v {
		details[k] = msg
	}
	return apperr.New(apperr.CodeValidation, "validation failed").WithDetails(details)
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}
