// Package gate implements profile based authorization. A subject (usually a
// user id) resolves to a Profile; the profile grants "resource:action"
// permissions, with "*" allowed on either side.
package gate

import "context"

// Gate answers authorization questions for subjects of type U.
type Gate[U comparable] struct {
	resolver Resolver[U]
}

func New[U comparable](resolver Resolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns nil when subject may perform action on resource.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, resource string, action Action) error {
	var zero U
	if subject == zero {
		return ErrUnauthenticated
	}
	p, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		return err
	}
	if p == nil || !p.HasPermission(NewPermission(resource, action)) {
		return ErrForbidden
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, subject U, resource string, action Action) bool {
	return g.Authorize(ctx, subject, resource, action) == nil
}

// IsSuperAdmin reports whether the subject's profile grants "*:*".
func (g *Gate[U]) IsSuperAdmin(ctx context.Context, subject U) bool {
	var zero U
	if subject == zero {
		return false
	}
	p, err := g.resolver.Resolve(ctx, subject)
	if err != nil || p == nil {
		return false
	}
	for _, perm := range p.Permissions() {
		if perm == PermissionSuperAdmin {
			return true
		}
	}
	return false
}
