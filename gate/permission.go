package gate

import "strings"

// Permission is a "resource:action" pair, e.g. "order:create".
type Permission string

const (
	Wildcard             = "*"
	PermissionSuperAdmin = Permission("*:*")
)

func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits the permission. Malformed values yield empty parts.
func (p Permission) Parse() (resource string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok || res == "" || act == "" {
		return "", ""
	}
	return res, Action(act)
}

// Valid reports whether the permission has both halves.
func (p Permission) Valid() bool {
	res, act := p.Parse()
	return res != "" && act != ""
}

// Matches reports whether a granted permission covers the requested one.
// Either half may be the wildcard: "order:*" grants every order action and
// "*:view" grants viewing every resource.
func (p Permission) Matches(requested Permission) bool {
	if p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == Wildcard || res == reqRes
	actOK := string(act) == Wildcard || act == reqAct
	return resOK && actOK
}
