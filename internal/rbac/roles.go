package rbac

import "sales-dialer/internal/auth"

// Role names. Keep these stable; they are carried in issued tokens.
const (
	RoleAdmin = auth.RoleAdmin
	RoleAgent = auth.RoleAgent
)

func IsAdmin(role string) bool { return role == RoleAdmin }
