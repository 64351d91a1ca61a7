package domain

import "time"

// Role is the closed set of account roles. Roles form an explicit hierarchy:
// admin ⊒ manager ⊒ authenticated ⊒ anonymous.
type Role string

const (
	RoleAnonymous     Role = "anonymous"
	RoleAuthenticated Role = "authenticated"
	RoleManager       Role = "manager"
	RoleAdmin         Role = "admin"
)

var roleRank = map[Role]int{
	RoleAnonymous:     0,
	RoleAuthenticated: 1,
	RoleManager:       2,
	RoleAdmin:         3,
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Outranks reports whether r sits at or above other in the role hierarchy.
// An unknown role never outranks anything.
func (r Role) Outranks(other Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	or, ok := roleRank[other]
	if !ok {
		return false
	}
	return rr >= or
}

// User models an account in the system. Accounts are never hard-deleted;
// lockout and verification are soft state carried on the record.
type User struct {
	ID                  string    `json:"id"`
	Nickname            string    `json:"nickname"`
	Email               string    `json:"email"`
	FirstName           string    `json:"first_name,omitempty"`
	LastName            string    `json:"last_name,omitempty"`
	Bio                 string    `json:"bio,omitempty"`
	ProfilePictureURL   string    `json:"profile_picture_url,omitempty"`
	PasswordHash        string    `json:"-"`
	Role                Role      `json:"role"`
	EmailVerified       bool      `json:"email_verified"`
	IsLocked            bool      `json:"is_locked"`
	FailedLoginAttempts int       `json:"-"`
	LastLoginAt         time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Principal is the authenticated identity resolved from a bearer token.
// Request-scoped; carries only what the access policy needs.
type Principal struct {
	Identity string
	Role     Role
}
