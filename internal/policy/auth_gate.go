package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/gate"
	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"gorm.io/gorm"
)

// AuthGate is the central authorization point: a gate over a cached
// database profile resolver.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
	log           *logger.Logger
}

// NewAuthGate caches resolved profiles for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration, logg *logger.Logger) *AuthGate {
	if logg == nil {
		logg = logger.Nop()
	}
	cached := gate.NewCachedResolver[uint](NewDBProfileResolver(db), cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cached),
		CacheResolver: cached,
		log:           logg,
	}
}

// Authorize checks the current request user against resource:action.
func (ag *AuthGate) Authorize(ctx context.Context, resource string, action gate.Action) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, resource, action)
}

// CanProfile is the boolean form used by templates to show or hide actions.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resource string) bool {
	return ag.Authorize(ctx, resource, action) == nil
}

// IsAdmin reports whether the current user holds "*:*".
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.IsSuperAdmin(ctx, userID)
}

// InvalidateUser drops the cached profile of one user after reassignment.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll drops every cached profile after permission changes.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission blocks requests whose user lacks resource:action.
func (ag *AuthGate) RequirePermission(resource string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), resource, action); err != nil {
				ag.deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only lets superadmins through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				ag.deny(w, r, gate.ErrUnauthenticated)
				return
			}
			if !ag.IsAdmin(r.Context()) {
				ag.deny(w, r, gate.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ag *AuthGate) deny(w http.ResponseWriter, r *http.Request, err error) {
	var appErr error
	switch {
	case errors.Is(err, gate.ErrUnauthenticated):
		if !httpx.WantsJSON(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		appErr = apperr.New(apperr.CodeUnauthorized, "authentication required")
	case errors.Is(err, gate.ErrForbidden):
		appErr = apperr.New(apperr.CodeForbidden, "access denied")
	default:
		appErr = apperr.Wrap(apperr.CodeInternal, err, "authorization failed")
	}
	if !httpx.WantsJSON(r) {
		meta := apperr.MetadataFor(apperr.As(appErr).Code())
		http.Error(w, meta.PublicMessage, meta.HTTPStatus)
		return
	}
	httpx.WriteError(r.Context(), ag.log, w, appErr)
}
