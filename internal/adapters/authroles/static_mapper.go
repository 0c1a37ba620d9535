// Package authroles maps identity provider groups to console roles.
package authroles

import (
	"slices"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
)

// StaticRoleMapper maps groups by exact membership. The most privileged
// matching group wins; no match yields RoleNone.
type StaticRoleMapper struct {
	SuperAdminGroup string
	AdminGroup      string
	CreatorGroup    string
	UserGroup       string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	tiers := []struct {
		group string
		role  domainauth.Role
	}{
		{m.SuperAdminGroup, domainauth.RoleSuperAdmin},
		{m.AdminGroup, domainauth.RoleAdmin},
		{m.CreatorGroup, domainauth.RoleCreator},
		{m.UserGroup, domainauth.RoleUser},
	}
	for _, t := range tiers {
		if t.group != "" && slices.Contains(groups, t.group) {
			return t.role
		}
	}
	return domainauth.RoleNone
}
