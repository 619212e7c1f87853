package gate

import (
	"context"
	"sort"
)

// Profile is a named set of permissions assigned to users.
type Profile interface {
	ID() uint
	Name() string
	Permissions() []Permission
	HasPermission(Permission) bool
}

// Resolver maps a subject to its profile. A nil profile with a nil error
// means the subject has no profile.
type Resolver[U comparable] interface {
	Resolve(ctx context.Context, subject U) (Profile, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc[U comparable] func(ctx context.Context, subject U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	return f(ctx, subject)
}

// StaticProfile keeps its permissions in memory.
type StaticProfile struct {
	id    uint
	name  string
	perms map[Permission]struct{}
}

func NewStaticProfile(id uint, name string, perms ...Permission) *StaticProfile {
	p := &StaticProfile{id: id, name: name, perms: make(map[Permission]struct{}, len(perms))}
	for _, perm := range perms {
		p.perms[perm] = struct{}{}
	}
	return p
}

func (p *StaticProfile) ID() uint     { return p.id }
func (p *StaticProfile) Name() string { return p.name }

// Permissions returns the granted permissions in sorted order.
func (p *StaticProfile) Permissions() []Permission {
	out := make([]Permission, 0, len(p.perms))
	for perm := range p.perms {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *StaticProfile) HasPermission(requested Permission) bool {
	if _, ok := p.perms[requested]; ok {
		return true
	}
	for perm := range p.perms {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// MapResolver is an in-memory Resolver, handy in tests and fixtures.
type MapResolver[U comparable] struct {
	profiles map[U]Profile
}

func NewMapResolver[U comparable]() *MapResolver[U] {
	return &MapResolver[U]{profiles: map[U]Profile{}}
}

func (r *MapResolver[U]) Set(subject U, p Profile) { r.profiles[subject] = p }

func (r *MapResolver[U]) Resolve(_ context.Context, subject U) (Profile, error) {
	return r.profiles[subject], nil
}
