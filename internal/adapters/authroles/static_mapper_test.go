package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/ports"
)

var _ ports.RoleMapper = StaticRoleMapper{}

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{
		SuperAdminGroup: "ctf-superadmins",
		AdminGroup:      "ctf-admins",
		CreatorGroup:    "ctf-creators",
		UserGroup:       "ctf-players",
	}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{"superadmin outranks admin", []string{"ctf-admins", "ctf-superadmins"}, domainauth.RoleSuperAdmin},
		{"admin", []string{"ctf-players", "ctf-admins"}, domainauth.RoleAdmin},
		{"creator", []string{"ctf-creators"}, domainauth.RoleCreator},
		{"player", []string{"ctf-players"}, domainauth.RoleUser},
		{"unrelated groups", []string{"staff"}, domainauth.RoleNone},
		{"no groups", nil, domainauth.RoleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_EmptyGroupNeverMatches(t *testing.T) {
	m := StaticRoleMapper{UserGroup: "ctf-players"}
	assert.Equal(t, domainauth.RoleNone, m.Map([]string{""}))
}
