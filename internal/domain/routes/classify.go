package routes

// Package routes holds the static route-classification table and the pure
// gating rules applied by the navigation guard.

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
)

// Class is the privilege tier a path belongs to.
type Class string

const (
	ClassPublic         Class = "PUBLIC"
	ClassUserArea       Class = "USER_AREA"
	ClassAdminArea      Class = "ADMIN_AREA"
	ClassSuperAdminArea Class = "SUPERADMIN_AREA"
	// ClassAuthenticated is the implicit class of paths no rule matches.
	ClassAuthenticated Class = "AUTHENTICATED"
)

// ParseClass converts a config value into a Class.
func ParseClass(raw string) (Class, error) {
	c := Class(strings.ToUpper(strings.TrimSpace(raw)))
	switch c {
	case ClassPublic, ClassUserArea, ClassAdminArea, ClassSuperAdminArea, ClassAuthenticated:
		return c, nil
	default:
		return "", fmt.Errorf("unknown route class %q", raw)
	}
}

// Rule maps a path pattern to a class.
// Pattern uses matcher syntax ("/admin(.*)") and is anchored at both ends.
// Roles, when set, replaces the class's default allow-list for this rule.
type Rule struct {
	Pattern string
	Class   Class
	Roles   []domainauth.Role
}

// ParseRule reads a rule written as "pattern|CLASS" or "pattern|CLASS|ROLE,ROLE".
// The pattern itself may contain "|", so the class is located from the right.
func ParseRule(entry string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(entry), "|")
	if len(parts) < 2 {
		return Rule{}, fmt.Errorf("route rule %q: want pattern|CLASS", entry)
	}
	n := len(parts)
	if c, err := ParseClass(parts[n-1]); err == nil {
		return Rule{Pattern: strings.Join(parts[:n-1], "|"), Class: c}, nil
	}
	if n < 3 {
		return Rule{}, fmt.Errorf("route rule %q: unknown class %q", entry, parts[n-1])
	}
	c, err := ParseClass(parts[n-2])
	if err != nil {
		return Rule{}, fmt.Errorf("route rule %q: %w", entry, err)
	}
	var roles []domainauth.Role
	for _, raw := range strings.Split(parts[n-1], ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		r := domainauth.ParseRole(raw)
		if r == domainauth.RoleNone {
			return Rule{}, fmt.Errorf("route rule %q: unknown role %q", entry, raw)
		}
		roles = append(roles, r)
	}
	return Rule{Pattern: strings.Join(parts[:n-2], "|"), Class: c, Roles: roles}, nil
}

// ParseRules parses each entry in order.
func ParseRules(entries []string) ([]Rule, error) {
	out := make([]Rule, 0, len(entries))
	for _, s := range entries {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type compiledRule struct {
	Rule
	re     *regexp.Regexp
	prefix string
}

// Match is the result of classifying a path.
type Match struct {
	Path  string
	Class Class
	// Rule is the matching rule; nil for ClassAuthenticated fall-through.
	Rule *Rule
}

// Table is an immutable, ordered classification table. First match wins.
type Table struct {
	rules []compiledRule
}

var errShadowed = errors.New("superadmin rule shadowed by earlier admin rule")

// NewTable compiles rules in order. Superadmin rules must be listed before the
// broader admin rules they are nested under.
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		pattern := strings.TrimSpace(r.Pattern)
		if pattern == "" {
			return nil, errors.New("route pattern cannot be empty")
		}
		if _, err := ParseClass(string(r.Class)); err != nil {
			return nil, err
		}
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("compile route pattern %q: %w", pattern, err)
		}
		cr := compiledRule{
			Rule:   Rule{Pattern: pattern, Class: r.Class, Roles: append([]domainauth.Role(nil), r.Roles...)},
			re:     re,
			prefix: literalPrefix(pattern),
		}
		if err := t.checkShadowing(cr); err != nil {
			return nil, err
		}
		t.rules = append(t.rules, cr)
	}
	return t, nil
}

// MustTable is NewTable for static tables known to be valid.
func MustTable(rules []Rule) *Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) checkShadowing(next compiledRule) error {
	if next.Class != ClassSuperAdminArea || next.prefix == "" {
		return nil
	}
	for _, prev := range t.rules {
		if prev.Class == ClassAdminArea && prev.re.MatchString(next.prefix) {
			return fmt.Errorf("%w: %q precedes %q", errShadowed, prev.Pattern, next.Pattern)
		}
	}
	return nil
}

// Classify returns the class of the given path. Query strings and fragments are ignored
// and the path is cleaned before matching.
func (t *Table) Classify(rawPath string) Match {
	p := normalizePath(rawPath)
	for i := range t.rules {
		if t.rules[i].re.MatchString(p) {
			rule := t.rules[i].Rule
			return Match{Path: p, Class: rule.Class, Rule: &rule}
		}
	}
	return Match{Path: p, Class: ClassAuthenticated}
}

// Rules returns a copy of the table's rules in match order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, Rule{Pattern: r.Pattern, Class: r.Class, Roles: append([]domainauth.Role(nil), r.Roles...)})
	}
	return out
}

func normalizePath(raw string) string {
	p := raw
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// literalPrefix returns the leading part of pattern that contains no regexp syntax.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `.()[]{}*+?|\^$`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
