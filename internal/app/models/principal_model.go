package models

import "github.com/google/uuid"

// Role is the privilege level of an authenticated user. Roles form a total
// order: each level includes every capability of the levels below it.
type Role string

const (
	RoleViewer     Role = "VIEWER"
	RoleStaff      Role = "STAFF"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Level returns the numeric rank of the role. Unknown roles rank below
// VIEWER so they never pass a privilege check.
func (r Role) Level() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleStaff:
		return 2
	case RoleAdmin:
		return 3
	case RoleSuperAdmin:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.Level() >= min.Level() && r.Level() > 0
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// Principal is the authenticated identity extracted from the bearer token.
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

// RequestContext carries the principal plus the request metadata that audit
// records denormalize. One RequestContext corresponds to one inbound call;
// its RequestID correlates every ledger and audit effect of that call.
type RequestContext struct {
	RequestID string
	Principal Principal
	Method    string
	Endpoint  string
	IPAddress string
	UserAgent string
}
