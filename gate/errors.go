package gate

import "errors"

var (
	// ErrUnauthenticated is returned when no subject is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the subject's profile lacks the permission.
	ErrForbidden = errors.New("forbidden")
)
