package core

// Role represents a user role on the platform
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleUser    Role = "user"
	RoleAnalyst Role = "analyst"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleAnalyst:
		return true
	}
	return false
}

// Identity is the resolved caller identity for mutations. Authentication
// itself is external; the API layer resolves a bearer token to an Identity
// and passes it down explicitly. A nil *Identity means "no identity" and is
// a caller-visible branch, never an implicit default.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

// SystemIdentity is the explicit identity used for unauthenticated mutations
// on deployments that allow them (e.g. automated status updates). It is a
// fixed constant, not a lazily created user record.
var SystemIdentity = Identity{
	ID:    "system",
	Email: "system@argus.local",
	Name:  "System",
	Role:  RoleAnalyst,
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// CanDelete reports whether the identity may delete a record created by
// createdBy. Deletion is restricted to the creator or an admin.
func (i *Identity) CanDelete(createdBy string) bool {
	if i == nil {
		return false
	}
	return i.IsAdmin() || i.ID == createdBy
}
