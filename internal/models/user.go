package models

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleStaff      UserRole = "STAFF"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleStudent    UserRole = "STUDENT"
)

// IsStaff reports whether the role manages bookings on behalf of others.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleInstructor:
		return true
	default:
		return false
	}
}
