// internal/authz/permissions.go
package authz

import "strings"

// --- РОЛИ ---

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleViewer   Role = "VIEWER"
)

// --- ДЕЙСТВИЯ ---

type Action string

const (
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionManageUsers Action = "manage_users"
	ActionImport      Action = "import"
	ActionExport      Action = "export"
)

// rolePermissions - единственный источник истины о правах ролей.
var rolePermissions = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionView:        true,
		ActionCreate:      true,
		ActionEdit:        true,
		ActionDelete:      true,
		ActionManageUsers: true,
		ActionImport:      true,
		ActionExport:      true,
	},
	RoleOperator: {
		ActionView:   true,
		ActionCreate: true,
		ActionEdit:   true,
		ActionImport: true,
		ActionExport: true,
	},
	RoleViewer: {
		ActionView: true,
	},
}

// HasPermission - неизвестная роль или действие всегда дают false.
func HasPermission(role Role, action Action) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[action]
}

// Permissions возвращает действия роли в фиксированном порядке.
func Permissions(role Role) []Action {
	ordered := []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionManageUsers, ActionImport, ActionExport}
	result := make([]Action, 0, len(ordered))
	for _, a := range ordered {
		if HasPermission(role, a) {
			result = append(result, a)
		}
	}
	return result
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := rolePermissions[r]
	return r, ok
}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}
