package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/go-bistro/gate"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/policy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ProfileSeed describes a system profile and its permission codes.
type ProfileSeed struct {
	Name        string
	Description string
	Permissions []string
}

// SystemProfiles are created on every start and cannot be deleted.
func SystemProfiles() []ProfileSeed {
	manager := make([]string, 0, len(policy.BusinessResources))
	for _, r := range policy.BusinessResources {
		manager = append(manager, string(gate.NewPermission(r, gate.Wildcard)))
	}
	return []ProfileSeed{
		{Name: "admin", Description: "Full system access", Permissions: []string{string(gate.PermissionSuperAdmin)}},
		{Name: "manager", Description: "Runs the restaurant: every business module", Permissions: manager},
		{
			Name:        "cashier",
			Description: "Takes orders and payments at the counter",
			Permissions: []string{
				"order:list", "order:view", "order:create", "order:update", "order:pay",
				"dish:list", "dish:view",
				"customer:list", "customer:view", "customer:create",
				"feedback:*",
			},
		},
		{Name: "viewer", Description: "Read-only access", Permissions: []string{"*:view", "*:list"}},
	}
}

func permissionRows() []models.Permission {
	rows := []models.Permission{
		{ResourceType: gate.Wildcard, Action: gate.Wildcard, Description: "Full system access"},
		{ResourceType: gate.Wildcard, Action: string(gate.ActionView), Description: "View anything"},
		{ResourceType: gate.Wildcard, Action: string(gate.ActionList), Description: "List anything"},
	}
	resources := make([]string, 0, len(policy.ResourceActions))
	for r := range policy.ResourceActions {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	for _, r := range resources {
		rows = append(rows, models.Permission{ResourceType: r, Action: gate.Wildcard, Description: "All " + r + " actions"})
		for _, a := range policy.ResourceActions[r] {
			rows = append(rows, models.Permission{
				ResourceType: r,
				Action:       string(a),
				Description:  strings.ToUpper(string(a)[:1]) + string(a)[1:] + " " + r,
			})
		}
	}
	return rows
}

// SeedPermissions inserts every known permission once.
func SeedPermissions(ctx context.Context, conn *gorm.DB) error {
	for _, p := range permissionRows() {
		perm := p
		err := conn.WithContext(ctx).
			Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm).Error
		if err != nil {
			return fmt.Errorf("seeding permission %s: %w", p.Code(), err)
		}
	}
	return nil
}

// SeedProfiles creates the system profiles and resets their permissions.
func SeedProfiles(ctx context.Context, conn *gorm.DB) error {
	if err := SeedPermissions(ctx, conn); err != nil {
		return err
	}
	tx := conn.WithContext(ctx)
	for _, seed := range SystemProfiles() {
		var profile models.Profile
		err := tx.Where("name = ?", seed.Name).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{Name: seed.Name, Description: seed.Description, IsSystem: true}
			err = tx.Create(&profile).Error
		}
		if err != nil {
			return fmt.Errorf("seeding profile %s: %w", seed.Name, err)
		}

		perms := make([]models.Permission, 0, len(seed.Permissions))
		for _, code := range seed.Permissions {
			resource, action := gate.Permission(code).Parse()
			var perm models.Permission
			if err := tx.Where("resource_type = ? AND action = ?", resource, string(action)).First(&perm).Error; err != nil {
				return fmt.Errorf("profile %s references %s: %w", seed.Name, code, err)
			}
			perms = append(perms, perm)
		}
		if err := tx.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("assigning permissions to %s: %w", seed.Name, err)
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap administrator when no user has that email.
// An empty password skips the step.
func SeedAdmin(ctx context.Context, conn *gorm.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	tx := conn.WithContext(ctx)
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	var admin models.Profile
	if err := tx.Where("name = ?", "admin").First(&admin).Error; err != nil {
		return false, fmt.Errorf("admin profile missing: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	user := models.User{Email: email, Name: "Administrator", Password: string(hash), ProfileID: &admin.ID}
	if err := tx.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
