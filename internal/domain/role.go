package domain

// Role is a user's role in the planning organisation
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSalesman    Role = "salesman"
	RoleManager     Role = "manager"
	RoleSupplyChain Role = "supply_chain"
)

// AllRoles lists every known role
var AllRoles = []Role{RoleAdmin, RoleSalesman, RoleManager, RoleSupplyChain}

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable role name
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleSalesman:
		return "Salesman"
	case RoleManager:
		return "Manager"
	case RoleSupplyChain:
		return "Supply Chain"
	default:
		return string(r)
	}
}

// Authorizer answers capability questions for a role
type Authorizer interface {
	CanDecide(role Role, itemType WorkflowItemType) bool
	CanSubmit(role Role, itemType WorkflowItemType) bool
	CanForward(role Role) bool
	CanAccessDashboard(role Role) bool
}
