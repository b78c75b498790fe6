package models

type Role string

const (
	RoleEmployee Role = "employee"
	RoleProvider Role = "provider"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleProvider || r == RoleHR || r == RoleAdmin
}

// Actor is the authenticated caller, resolved from the bearer token.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used by the recurring dispatcher and other background jobs.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}
