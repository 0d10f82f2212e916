package session

import "strings"

const (
	PermEvaluationRead   = "evaluation.read"
	PermEvaluationSubmit = "evaluation.submit"
	PermEvaluationReport = "evaluation.report"
	PermAuditRead        = "audit.read"
)

// Role ids as issued by the HR backend.
const (
	RoleAdministrator = 1
	RoleTeacher       = 2
	RoleStaff         = 3
)

var DefaultPermissions = []string{
	PermEvaluationRead,
	PermEvaluationSubmit,
	PermEvaluationReport,
	PermAuditRead,
}

var RolePermissions = map[int][]string{
	RoleAdministrator: {
		PermEvaluationRead,
		PermEvaluationSubmit,
		PermEvaluationReport,
		PermAuditRead,
	},
	RoleTeacher: {
		PermEvaluationRead,
	},
	RoleStaff: {
		PermEvaluationRead,
	},
}

var roleNames = map[string]int{
	"administrator": RoleAdministrator,
	"admin":         RoleAdministrator,
	"teacher":       RoleTeacher,
	"teaching":      RoleTeacher,
	"staff":         RoleStaff,
	"nonteaching":   RoleStaff,
}

// RoleIDForName maps a backend role name onto a known role id, or 0.
func RoleIDForName(name string) int {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
	key = strings.ReplaceAll(key, " ", "")
	return roleNames[key]
}

// Permissions returns the union of permissions granted by the user's primary
// role and every role in the roles list.
func (u User) Permissions() []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(roleID int) {
		for _, perm := range RolePermissions[roleID] {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	add(u.RoleID)
	for _, role := range u.Roles {
		add(role.RoleID)
		add(RoleIDForName(role.RoleName))
	}
	return out
}

func (u User) HasPermission(perm string) bool {
	for _, p := range u.Permissions() {
		if p == perm {
			return true
		}
	}
	return false
}
