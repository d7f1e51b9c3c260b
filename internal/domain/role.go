package domain

import (
	"context"
	"fmt"
	"strings"
)

// Role is a closed set; the zero value is not a valid role.
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleParent:
		return RoleParent, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrRoleMismatch, s)
	}
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleParent
}

func (r Role) String() string {
	return string(r)
}

// Identity is the verified caller of a request.
type Identity struct {
	UserID int64
	Role   Role
}

func (id Identity) IsStudent() bool { return id.Role == RoleStudent }
func (id Identity) IsParent() bool  { return id.Role == RoleParent }

// RequireRole fails with ErrRoleMismatch unless the caller holds role.
func RequireRole(id Identity, role Role) error {
	if id.Role != role {
		return fmt.Errorf("%w: %s action requested by %s", ErrRoleMismatch, role, id.Role)
	}
	return nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
