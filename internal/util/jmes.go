package util

import (
	"fmt"
	"strings"

	"github.com/jmespath-community/go-jmespath"
)

// Path is a compiled JMESPath expression. The zero value matches nothing.
type Path struct {
	expr   string
	search func(data any) (any, error)
}

// CompilePath compiles expr. An empty expression yields the zero Path.
func CompilePath(expr string) (Path, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Path{}, nil
	}
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return Path{}, fmt.Errorf("compile jmespath %q: %w", expr, err)
	}
	return Path{expr: expr, search: compiled.Search}, nil
}

// MustPath is CompilePath for expressions known at compile time.
func MustPath(expr string) Path {
	p, err := CompilePath(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Expr returns the source expression.
func (p Path) Expr() string { return p.expr }

// IsZero reports whether p has no expression.
func (p Path) IsZero() bool { return p.search == nil }

// Search evaluates p against data.
func (p Path) Search(data any) (any, error) {
	if p.search == nil || data == nil {
		return nil, nil
	}
	return p.search(data)
}

// String evaluates p and returns the trimmed result when it is a string.
func (p Path) String(data any) string {
	v, err := p.Search(data)
	if err != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
