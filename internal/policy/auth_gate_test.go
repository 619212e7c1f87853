package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/gate"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func userWithProfile(t *testing.T, conn *gorm.DB, email, profile string) uint {
	t.Helper()
	var p models.Profile
	require.NoError(t, conn.Where("name = ?", profile).First(&p).Error)
	u := models.User{Email: email, Password: "x", ProfileID: &p.ID}
	require.NoError(t, conn.Create(&u).Error)
	return u.ID
}

func TestDBProfileResolver(t *testing.T) {
	conn := dbtest.Seeded(t)
	uid := userWithProfile(t, conn, "cash@example.com", "cashier")
	r := policy.NewDBProfileResolver(conn)

	p, err := r.Resolve(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "cashier", p.Name())
	assert.True(t, p.HasPermission("order:create"))
	assert.False(t, p.HasPermission("staff:list"))

	p, err = r.Resolve(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRequirePermission(t *testing.T) {
	conn := dbtest.Seeded(t)
	cashier := userWithProfile(t, conn, "c@example.com", "cashier")
	ag := policy.NewAuthGate(conn, time.Minute, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name     string
		uid      uint
		resource string
		action   gate.Action
		want     int
	}{
		{"allowed", cashier, policy.ResourceOrder, gate.ActionCreate, http.StatusNoContent},
		{"forbidden", cashier, policy.ResourceStaff, gate.ActionList, http.StatusForbidden},
		{"anonymous", 0, policy.ResourceOrder, gate.ActionList, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			if tt.uid != 0 {
				req = req.WithContext(auth.WithUserID(req.Context(), tt.uid))
			}
			rec := httptest.NewRecorder()
			ag.RequirePermission(tt.resource, tt.action)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want >= 400 {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequirePermissionRedirectsAnonymousPages(t *testing.T) {
	conn := dbtest.Seeded(t)
	ag := policy.NewAuthGate(conn, time.Minute, nil)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	ag.RequirePermission(policy.ResourceOrder, gate.ActionList)(http.NotFoundHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAdmin(t *testing.T) {
	conn := dbtest.Seeded(t)
	admin := userWithProfile(t, conn, "a@example.com", "admin")
	manager := userWithProfile(t, conn, "m@example.com", "manager")
	ag := policy.NewAuthGate(conn, time.Minute, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	for uid, want := range map[uint]int{admin: http.StatusOK, manager: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles", nil)
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
		rec := httptest.NewRecorder()
		ag.RequireAdmin()(ok).ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "user %d", uid)
	}
}

func TestInvalidateUserPicksUpNewProfile(t *testing.T) {
	conn := dbtest.Seeded(t)
	uid := userWithProfile(t, conn, "v@example.com", "viewer")
	ag := policy.NewAuthGate(conn, time.Hour, nil)
	ctx := auth.WithUserID(context.Background(), uid)

	assert.False(t, ag.CanProfile(ctx, gate.ActionCreate, policy.ResourceOrder))

	var cashier models.Profile
	require.NoError(t, conn.Where("name = ?", "cashier").First(&cashier).Error)
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", uid).Update("profile_id", cashier.ID).Error)
	assert.False(t, ag.CanProfile(ctx, gate.ActionCreate, policy.ResourceOrder), "cached profile still served")

	ag.InvalidateUser(uid)
	assert.True(t, ag.CanProfile(ctx, gate.ActionCreate, policy.ResourceOrder))
}
