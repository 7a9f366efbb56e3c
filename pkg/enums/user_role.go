package enums

// UserRole is the coarse authorization role attached to a request.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

// RoleFor derives the role from the admin flag stored on the user.
func RoleFor(isAdmin bool) UserRole {
	if isAdmin {
		return UserRoleAdmin
	}
	return UserRoleCustomer
}
