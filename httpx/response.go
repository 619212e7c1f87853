// Package httpx holds the JSON response helpers shared by the handlers.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"encode error"}}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes the error envelope without going through apperr.
func JSONError(w http.ResponseWriter, status int, code apperr.Code, msg string, details any) {
	JSON(w, status, ErrorEnvelope{Error: APIError{Code: string(code), Message: msg, Details: details}})
}

// WriteError maps err to its HTTP status and envelope and logs it with the
// request context. Untyped errors become INTERNAL_ERROR.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := typedError(err)
	meta := apperr.MetadataFor(typed.Code())

	payload := ErrorEnvelope{Error: APIError{Code: string(typed.Code()), Message: PublicMessage(err)}}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"error_code": string(typed.Code()),
			"status":     meta.HTTPStatus,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "request.rejected")
		}
	}
	JSON(w, meta.HTTPStatus, payload)
}

func typedError(err error) *apperr.Error {
	typed := apperr.As(err)
	if typed == nil {
		typed = apperr.Wrap(apperr.CodeInternal, err, "unexpected error")
	}
	return typed
}

// Status is the HTTP status err maps to.
func Status(err error) int {
	return apperr.MetadataFor(typedError(err).Code()).HTTPStatus
}

// PublicMessage is the message safe to show a client for err.
func PublicMessage(err error) string {
	typed := typedError(err)
	meta := apperr.MetadataFor(typed.Code())
	if meta.Expose && typed.Message() != "" {
		return typed.Message()
	}
	return meta.PublicMessage
}

// WantsJSON reports whether the client prefers JSON over HTML.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
