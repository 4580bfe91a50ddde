package qcat

import (
	"context"
	"fmt"
)

// Role is the login role a client selects when a session starts.
type Role int32

const (
	RolePatron Role = 1
	RoleAdmin  Role = 2
)

func (r Role) String() string {
	switch r {
	case RolePatron:
		return "patron"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int32(r))
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatron || r == RoleAdmin
}

// Authenticator checks a username and password for a role.
// A false result with a nil error is a rejected login; an error means the
// check itself could not be performed.
type Authenticator interface {
	Authenticate(ctx context.Context, role Role, username, password string) (bool, error)
}

// AuthenticatorFunc adapts a function to an Authenticator.
type AuthenticatorFunc func(ctx context.Context, role Role, username, password string) (bool, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, role Role, username, password string) (bool, error) {
	return f(ctx, role, username, password)
}
