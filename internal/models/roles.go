package models

// Role is the account type stored on every user row.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInfluencer Role = "influencer"
	RoleBrand      Role = "brand"
	RoleUser       Role = "user"
)

// Roles lists every role in the order stats are reported.
var Roles = []Role{RoleAdmin, RoleInfluencer, RoleBrand, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// SignupRole reports whether r may be chosen by a self-registering user.
func (r Role) SignupRole() bool {
	return r == RoleBrand || r == RoleInfluencer
}
