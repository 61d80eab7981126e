package models

// Role is the authorization role carried by an identity and its tokens.
type Role string

const (
	RoleOwner         Role = "Owner"
	RoleAdministrator Role = "Administrator"
)

// IsAdmin reports whether the role sees every ledger entry.
func (r Role) IsAdmin() bool {
	return r == RoleAdministrator
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdministrator
}

// User is a registered identity.
type User struct {
	ID           string `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
}
