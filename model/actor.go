package model

// Roles issued to users at login
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// Actor identifies the user a request is made on behalf of
type Actor struct {
	ID       string
	Username string
	TenantID string
	Role     string
}

// CanWrite reports whether the actor's role may mutate contracts
func (a Actor) CanWrite() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}
