// Package authz answers role capability questions from a fixed table.
package authz

import "github.com/dafibh/salesplan/salesplan-backend/internal/domain"

// Action is a capability that may be granted to a role
type Action string

const (
	ActionDecideBudget    Action = "decide_budget"
	ActionDecideForecast  Action = "decide_forecast"
	ActionSubmitBudget    Action = "submit_budget"
	ActionSubmitForecast  Action = "submit_forecast"
	ActionForward         Action = "forward"
	ActionAccessDashboard Action = "access_dashboard"
)

// Table is a closed {role x action} grant table
type Table struct {
	grants map[domain.Role]map[Action]bool
}

// DefaultGrants is the capability table of the planning organisation
var DefaultGrants = map[domain.Role][]Action{
	domain.RoleAdmin: {
		ActionDecideBudget, ActionDecideForecast,
		ActionSubmitBudget, ActionSubmitForecast,
		ActionForward, ActionAccessDashboard,
	},
	domain.RoleManager: {
		ActionDecideBudget, ActionDecideForecast,
		ActionSubmitBudget, ActionSubmitForecast,
		ActionForward, ActionAccessDashboard,
	},
	domain.RoleSalesman: {
		ActionSubmitBudget, ActionSubmitForecast,
		ActionAccessDashboard,
	},
	domain.RoleSupplyChain: {
		ActionDecideBudget,
		ActionAccessDashboard,
	},
}

// NewTable builds a Table from grants. Unknown roles are ignored.
func NewTable(grants map[domain.Role][]Action) *Table {
	t := &Table{grants: make(map[domain.Role]map[Action]bool)}
	for role, actions := range grants {
		if !role.IsValid() {
			continue
		}
		set := make(map[Action]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		t.grants[role] = set
	}
	return t
}

// NewDefaultTable builds the Table from DefaultGrants
func NewDefaultTable() *Table {
	return NewTable(DefaultGrants)
}

// Allows reports whether role holds action
func (t *Table) Allows(role domain.Role, action Action) bool {
	return t.grants[role][action]
}

// CanDecide reports whether role may approve or reject items of itemType
func (t *Table) CanDecide(role domain.Role, itemType domain.WorkflowItemType) bool {
	switch itemType {
	case domain.ItemTypeBudget:
		return t.Allows(role, ActionDecideBudget)
	case domain.ItemTypeForecast:
		return t.Allows(role, ActionDecideForecast)
	}
	return false
}

// CanSubmit reports whether role may submit entities of itemType
func (t *Table) CanSubmit(role domain.Role, itemType domain.WorkflowItemType) bool {
	switch itemType {
	case domain.ItemTypeBudget:
		return t.Allows(role, ActionSubmitBudget)
	case domain.ItemTypeForecast:
		return t.Allows(role, ActionSubmitForecast)
	}
	return false
}

// CanForward reports whether role may hand a submitted item on
func (t *Table) CanForward(role domain.Role) bool {
	return t.Allows(role, ActionForward)
}

// CanAccessDashboard reports whether role may view the dashboard
func (t *Table) CanAccessDashboard(role domain.Role) bool {
	return t.Allows(role, ActionAccessDashboard)
}

// Capabilities lists what a role may do, for clients that adapt their UI
func (t *Table) Capabilities(role domain.Role) map[Action]bool {
	out := make(map[Action]bool)
	for _, a := range []Action{
		ActionDecideBudget, ActionDecideForecast,
		ActionSubmitBudget, ActionSubmitForecast,
		ActionForward, ActionAccessDashboard,
	} {
		out[a] = t.Allows(role, a)
	}
	return out
}

var _ domain.Authorizer = (*Table)(nil)
