package domain

// Role distinguishes the two kinds of portal principals this service serves.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Principal is the canonical authenticated caller. It is produced once at
// the authentication boundary and passed explicitly into every service call.
type Principal struct {
	ID          string
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsStudent reports whether the principal carries the student role.
func (p Principal) IsStudent() bool {
	return p.Role == RoleStudent
}
