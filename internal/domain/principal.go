package domain

type Role string

const (
	RoleBusinessUser Role = "business_user"
	RoleAdmin        Role = "admin"
	RoleSystem       Role = "system"
)

// Principal is an authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

// SystemPrincipal is used by scheduled jobs such as the overdue sweep.
func SystemPrincipal() Principal {
	return Principal{Role: RoleSystem}
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsSystem() bool {
	return p.Role == RoleSystem
}

// Actor returns the id recorded in audit entries; nil for the system.
func (p Principal) Actor() *string {
	if p.IsSystem() || p.ID == "" {
		return nil
	}
	id := p.ID
	return &id
}
