package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"gorm.io/gorm"
)

// AdminUserProfileHandler lists users and assigns them to profiles.
type AdminUserProfileHandler struct {
	responder
	db    *gorm.DB
	cache ProfileCache
}

func NewAdminUserProfileHandler(db *gorm.DB, cache ProfileCache, logg *logger.Logger) *AdminUserProfileHandler {
	return &AdminUserProfileHandler{responder: newResponder(logg), db: db, cache: cache}
}

func (h *AdminUserProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.db.WithContext(r.Context()).Preload("Profile").Order("email").Find(&users).Error; err != nil {
		h.fail(w, r, apperr.FromDB(err, "user"))
		return
	}
	var profiles []models.Profile
	if err := h.db.WithContext(r.Context()).Order("name").Find(&profiles).Error; err != nil {
		h.fail(w, r, apperr.FromDB(err, "profile"))
		return
	}
	if httpx.WantsJSON(r) {
		h.ok(w, map[string]any{"users": users, "profiles": profiles})
		return
	}
	h.page(w, r, "admin/users/index.html", map[string]any{"Users": users, "Profiles": profiles})
}

// AssignProfile sets or clears (profile_id empty or 0) the user's profile.
func (h *AdminUserProfileHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperr.Wrap(apperr.CodeValidation, err, "invalid form"))
		return
	}

	var profileID *uint
	if raw := strings.TrimSpace(r.FormValue("profile_id")); raw != "" && raw != "0" {
		pid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || pid == 0 {
			h.fail(w, r, apperr.Validation("profile_id", "must be a positive integer"))
			return
		}
		var profile models.Profile
		if err := h.db.WithContext(r.Context()).First(&profile, pid).Error; err != nil {
			h.fail(w, r, apperr.FromDB(err, "profile"))
			return
		}
		id := uint(pid)
		profileID = &id
	}

	res := h.db.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", userID).Update("profile_id", profileID)
	if res.Error != nil {
		h.fail(w, r, apperr.FromDB(res.Error, "user"))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(w, r, apperr.NotFound("user"))
		return
	}
	if h.cache != nil {
		h.cache.InvalidateUser(userID)
	}
	h.log.Info(h.log.WithFields(r.Context(), map[string]any{"target_user": userID, "profile_id": profileID}), "admin.profile_assigned")

	if httpx.WantsJSON(r) {
		h.ok(w, map[string]any{"user_id": userID, "profile_id": profileID})
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
