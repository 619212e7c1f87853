package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/validation"
	"gorm.io/gorm"
)

// ProfileCache drops cached authorization profiles after admin changes.
type ProfileCache interface {
	InvalidateUser(userID uint)
	InvalidateAll()
}

// AdminProfileHandler lets admins create, edit and delete profiles and
// manage their permissions.
type AdminProfileHandler struct {
	responder
	db    *gorm.DB
	cache ProfileCache
}

func NewAdminProfileHandler(db *gorm.DB, cache ProfileCache, logg *logger.Logger) *AdminProfileHandler {
	return &AdminProfileHandler{responder: newResponder(logg), db: db, cache: cache}
}

type profileInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// readProfile accepts either a JSON body or the HTML form.
func readProfile(r *http.Request) (profileInput, error) {
	var in profileInput
	if isJSONBody(r) {
		err := validation.DecodeJSON(r, &in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, apperr.Wrap(apperr.CodeValidation, err, "invalid form")
	}
	in.Name = strings.TrimSpace(r.FormValue("name"))
	in.Description = strings.TrimSpace(r.FormValue("description"))
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	return in, v.Err()
}

func (h *AdminProfileHandler) invalidateAll() {
	if h.cache != nil {
		h.cache.InvalidateAll()
	}
}

func (h *AdminProfileHandler) find(r *http.Request, preload ...string) (*models.Profile, error) {
	id, err := httpx.PathID(r)
	if err != nil {
		return nil, err
	}
	q := h.db.WithContext(r.Context())
	for _, p := range preload {
		q = q.Preload(p)
	}
	var profile models.Profile
	if err := q.First(&profile, id).Error; err != nil {
		return nil, apperr.FromDB(err, "profile")
	}
	return &profile, nil
}

// List displays all profiles with their permissions and user counts.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.db.WithContext(r.Context()).Preload("Permissions").Preload("Users").Order("name").Find(&profiles).Error; err != nil {
		h.fail(w, r, apperr.FromDB(err, "profile"))
		return
	}
	if httpx.WantsJSON(r) {
		h.ok(w, map[string]any{"profiles": profiles})
		return
	}
	h.page(w, r, "admin/profiles/index.html", map[string]any{"Profiles": profiles})
}

func (h *AdminProfileHandler) New(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, "admin/profiles/form.html", map[string]any{"IsEdit": false})
}

// formError re-renders the profile form, or answers JSON for API clients.
func (h *AdminProfileHandler) formError(w http.ResponseWriter, r *http.Request, profile models.Profile, edit bool, err error) {
	if isJSONBody(r) || httpx.WantsJSON(r) {
		h.fail(w, r, err)
		return
	}
	errs := map[string]string{"name": httpx.PublicMessage(err)}
	if typed := apperr.As(err); typed != nil {
		if details, ok := typed.Details().(map[string]string); ok {
			errs = details
		}
	}
	w.WriteHeader(httpx.Status(err))
	h.page(w, r, "admin/profiles/form.html", map[string]any{
		"IsEdit":  edit,
		"Profile": profile,
		"Errors":  errs,
	})
}

func (h *AdminProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readProfile(r)
	profile := models.Profile{Name: in.Name, Description: in.Description}
	if err != nil {
		h.formError(w, r, profile, false, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Create(&profile).Error; err != nil {
		err = apperr.FromDB(err, "profile")
		if apperr.Is(err, apperr.CodeConflict) {
			err = apperr.New(apperr.CodeConflict, "profile name already exists")
		}
		h.formError(w, r, profile, false, err)
		return
	}
	h.log.Info(h.log.WithField(r.Context(), "profile", profile.Name), "admin.profile_created")
	if isJSONBody(r) {
		h.created(w, profile)
		return
	}
	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}

func (h *AdminProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	profile, err := h.find(r)
	if err != nil {
		http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
		return
	}
	h.page(w, r, "admin/profiles/form.html", map[string]any{"IsEdit": true, "Profile": profile})
}

func (h *AdminProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	profile, err := h.find(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := readProfile(r)
	if err != nil {
		h.formError(w, r, *profile, true, err)
		return
	}
	profile.Name = in.Name
	profile.Description = in.Description
	if err := h.db.WithContext(r.Context()).Save(profile).Error; err != nil {
		h.formError(w, r, *profile, true, apperr.FromDB(err, "profile"))
		return
	}
	h.invalidateAll()
	if isJSONBody(r) {
		h.ok(w, profile)
		return
	}
	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}

// Delete refuses system profiles and profiles still assigned to users.
func (h *AdminProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile, err := h.find(r, "Users")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch {
	case profile.IsSystem:
		err = apperr.New(apperr.CodeForbidden, "system profiles cannot be deleted")
	case len(profile.Users) > 0:
		err = apperr.New(apperr.CodeConflict, "profile is assigned to users")
	default:
		err = apperr.FromDB(h.db.WithContext(r.Context()).Delete(profile).Error, "profile")
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidateAll()
	if isJSONBody(r) || httpx.WantsJSON(r) {
		h.ok(w, map[string]any{"deleted": profile.ID})
		return
	}
	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}

// EditPermissions shows every permission grouped by resource, with the
// profile's current grants checked.
func (h *AdminProfileHandler) EditPermissions(w http.ResponseWriter, r *http.Request) {
	profile, err := h.find(r, "Permissions")
	if err != nil {
		http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
		return
	}
	var all []models.Permission
	if err := h.db.WithContext(r.Context()).Order("resource_type, action").Find(&all).Error; err != nil {
		h.pageError(w, r, "admin/profiles/permissions.html", apperr.FromDB(err, "permission"))
		return
	}
	byResource := make(map[string][]models.Permission)
	for _, p := range all {
		byResource[p.ResourceType] = append(byResource[p.ResourceType], p)
	}
	current := make(map[uint]bool, len(profile.Permissions))
	for _, p := range profile.Permissions {
		current[p.ID] = true
	}
	h.page(w, r, "admin/profiles/permissions.html", map[string]any{
		"Profile":               profile,
		"PermissionsByResource": byResource,
		"CurrentPermissionIDs":  current,
	})
}

// SavePermissions replaces the profile's grants with the checked boxes.
func (h *AdminProfileHandler) SavePermissions(w http.ResponseWriter, r *http.Request) {
	profile, err := h.find(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperr.Wrap(apperr.CodeValidation, err, "invalid form"))
		return
	}
	var ids []uint
	for _, raw := range r.Form["permissions"] {
		if pid, err := strconv.ParseUint(raw, 10, 64); err == nil && pid > 0 {
			ids = append(ids, uint(pid))
		}
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var perms []models.Permission
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Find(&perms).Error; err != nil {
				return err
			}
		}
		return tx.Model(profile).Association("Permissions").Replace(perms)
	})
	if err != nil {
		h.fail(w, r, apperr.FromDB(err, "permission"))
		return
	}
	h.invalidateAll()
	h.log.Info(h.log.WithFields(r.Context(), map[string]any{"profile_id": profile.ID, "permissions": len(ids)}), "admin.permissions_saved")
	http.Redirect(w, r, "/admin/profiles/"+strconv.FormatUint(uint64(profile.ID), 10)+"/permissions", http.StatusSeeOther)
}

// ListPermissions returns the permission catalogue for API clients.
func (h *AdminProfileHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var perms []models.Permission
	if err := h.db.WithContext(r.Context()).Order("resource_type, action").Find(&perms).Error; err != nil {
		h.fail(w, r, apperr.FromDB(err, "permission"))
		return
	}
	h.ok(w, perms)
}
