package config

import "strings"

// RoutesConfig customizes route classification and redirect targets.
//
// Rule entries use "pattern|CLASS" or "pattern|CLASS|ROLE,ROLE", e.g.
// "/admin/reports(.*)|ADMIN_AREA|ADMIN,SUPERADMIN,CREATOR".
type RoutesConfig struct {
	// Rules replaces the built-in table when non-empty.
	Rules []string `env:"RULES" envSeparator:";"`
	// ExtraRules are evaluated before the active table.
	ExtraRules []string `env:"EXTRA_RULES" envSeparator:";"`

	SignIn     string `env:"SIGN_IN"     envDefault:"/sign-in"`
	PublicRoot string `env:"PUBLIC_ROOT" envDefault:"/"`
	UserRoot   string `env:"USER_ROOT"   envDefault:"/platform"`
	AdminRoot  string `env:"ADMIN_ROOT"  envDefault:"/admin"`
}

// Sanitize drops blank entries and trims targets.
func (c *RoutesConfig) Sanitize() {
	c.Rules = compact(c.Rules)
	c.ExtraRules = compact(c.ExtraRules)
	c.SignIn = strings.TrimSpace(c.SignIn)
	c.PublicRoot = strings.TrimSpace(c.PublicRoot)
	c.UserRoot = strings.TrimSpace(c.UserRoot)
	c.AdminRoot = strings.TrimSpace(c.AdminRoot)
}

func compact(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
