package service

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/thesis-portal/internal/models"
)

// Permission names checked across the portal.
const (
	PermViewAllProjects = "ver_todos_proyectos"
	PermViewMyProjects  = "ver_mis_proyectos"
	PermViewMyProject   = "ver_mi_proyecto"
	PermCreateProject   = "crear_proyecto"
	PermChangeStatus    = "cambiar_estado"
	PermScheduleMeeting = "agendar_reunion"
	PermViewHistory     = "ver_historial"
	PermViewDetail      = "ver_detalle"
	PermViewCommittees  = "ver_comites"
)

// projectActionOrder is the render order of per-project action buttons.
var projectActionOrder = []string{PermChangeStatus, PermScheduleMeeting, PermViewHistory, PermViewDetail}

//go:embed permissions.yaml
var defaultPolicy []byte

// MenuItem is one navigation entry.
type MenuItem struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

type rolePolicy struct {
	Permissions   []string   `yaml:"permissions"`
	Menu          []MenuItem `yaml:"menu"`
	Notifications bool       `yaml:"notifications"`

	allowed map[string]struct{}
}

// PermissionTable is the static role policy.
type PermissionTable struct {
	roles map[models.Role]*rolePolicy
}

// LoadPermissionTable parses a YAML role policy.
func LoadPermissionTable(data []byte) (*PermissionTable, error) {
	var doc struct {
		Roles map[models.Role]*rolePolicy `yaml:"roles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse permission table: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("permission table has no roles")
	}
	for role, policy := range doc.Roles {
		if !role.Valid() {
			return nil, fmt.Errorf("permission table: unknown role %q", role)
		}
		if policy == nil {
			policy = &rolePolicy{}
			doc.Roles[role] = policy
		}
		policy.allowed = make(map[string]struct{}, len(policy.Permissions))
		for _, p := range policy.Permissions {
			policy.allowed[p] = struct{}{}
		}
	}
	return &PermissionTable{roles: doc.Roles}, nil
}

// DefaultPermissionTable returns the embedded policy.
func DefaultPermissionTable() *PermissionTable {
	table, err := LoadPermissionTable(defaultPolicy)
	if err != nil {
		panic(err)
	}
	return table
}

// Allows reports whether role may perform action. Unknown roles get nothing.
func (t *PermissionTable) Allows(role models.Role, action string) bool {
	if t == nil {
		return false
	}
	policy, ok := t.roles[role]
	if !ok {
		return false
	}
	_, ok = policy.allowed[action]
	return ok
}

// HasPermission is Allows for an identity; nil identities have no permissions.
func (t *PermissionTable) HasPermission(identity *models.Identity, action string) bool {
	return identity != nil && t.Allows(identity.Rol, action)
}

// Permissions returns the sorted permissions of role.
func (t *PermissionTable) Permissions(role models.Role) []string {
	if t == nil {
		return nil
	}
	policy, ok := t.roles[role]
	if !ok {
		return nil
	}
	out := append([]string(nil), policy.Permissions...)
	sort.Strings(out)
	return out
}

// ProjectActions returns the per-project actions of role in render order.
func (t *PermissionTable) ProjectActions(role models.Role) []string {
	actions := make([]string, 0, len(projectActionOrder))
	for _, action := range projectActionOrder {
		if t.Allows(role, action) {
			actions = append(actions, action)
		}
	}
	return actions
}

// Menu returns the navigation menu of role.
func (t *PermissionTable) Menu(role models.Role) []MenuItem {
	if t == nil {
		return nil
	}
	if policy, ok := t.roles[role]; ok {
		return append([]MenuItem(nil), policy.Menu...)
	}
	return nil
}

// ShowsNotifications reports whether role gets the notification widget.
func (t *PermissionTable) ShowsNotifications(role models.Role) bool {
	if t == nil {
		return false
	}
	policy, ok := t.roles[role]
	return ok && policy.Notifications
}
