package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/db"
	"github.com/diewo77/go-bistro/view"
	"gorm.io/gorm"
)

const readyTimeout = 2 * time.Second

type health struct {
	checks map[string]func(context.Context) error
}

func newHealth(conn *gorm.DB, store cache.Store, extra map[string]func(context.Context) error) *health {
	checks := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error { return db.Ping(ctx, conn) },
	}
	if _, isRedis := store.(*cache.RedisStore); isRedis {
		checks["redis"] = store.Ping
	}
	for name, fn := range extra {
		checks[name] = fn
	}
	return &health{checks: checks}
}

func (h *health) live(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready reports each dependency; any failure makes the whole probe 503.
func (h *health) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}
	httpx.JSON(w, code, map[string]any{"status": status, "checks": results})
}

func landing(w http.ResponseWriter, r *http.Request) {
	userID, loggedIn := auth.UserIDFromContext(r.Context())
	if err := view.Render(w, r, "index.html", map[string]any{"IsLoggedIn": loggedIn, "UserID": userID}); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
