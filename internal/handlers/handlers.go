// Package handlers exposes the services over HTTP: JSON under /api and
// server-rendered pages everywhere else.
package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/view"
)

// responder holds the helpers every handler shares.
type responder struct {
	log *logger.Logger
}

func newResponder(logg *logger.Logger) responder {
	if logg == nil {
		logg = logger.Nop()
	}
	return responder{log: logg}
}

func (h responder) ok(w http.ResponseWriter, payload any) {
	httpx.JSON(w, http.StatusOK, payload)
}

func (h responder) created(w http.ResponseWriter, payload any) {
	httpx.JSON(w, http.StatusCreated, payload)
}

func (h responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(r.Context(), h.log, w, err)
}

// page renders a template. A failing page falls back to a plain 500.
func (h responder) page(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name, data); err != nil {
		h.log.Error(h.log.WithField(r.Context(), "template", name), "view.render_failed", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// pageError renders a page that only carries an error message.
func (h responder) pageError(w http.ResponseWriter, r *http.Request, name string, err error) {
	h.log.Warn(h.log.WithField(r.Context(), "error", err.Error()), "page.error")
	w.WriteHeader(httpx.Status(err))
	h.page(w, r, name, map[string]any{"Error": httpx.PublicMessage(err)})
}

// remove runs a delete by path id and answers {"deleted": id}.
func (h responder) remove(w http.ResponseWriter, r *http.Request, del func(context.Context, uint) error) {
	id, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, map[string]any{"deleted": id})
}
