// Package directory provides principal role lookups backed by the CTF API,
// Postgres, or a cache in front of either.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/ctf-console/internal/apiclient"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	apperrors "github.com/target/ctf-console/internal/errors"
	"github.com/target/ctf-console/internal/util"
)

const (
	defaultUsersPath = "/api/users"
	defaultRolePath  = "role || data.role || user.role"
)

// HTTPOptions configures an HTTP directory.
type HTTPOptions struct {
	// UsersPath is the collection path; lookups GET {UsersPath}/{id}.
	UsersPath string
	// RolePath is a JMESPath expression selecting the role from the response body.
	RolePath string
}

// HTTP looks up roles through the API request client.
type HTTP struct {
	client    *apiclient.Client
	usersPath string
	role      util.Path
}

// NewHTTP builds an HTTP directory over client.
func NewHTTP(client *apiclient.Client, opts HTTPOptions) (*HTTP, error) {
	if client == nil {
		return nil, errors.New("api client is required")
	}
	users := strings.TrimRight(opts.UsersPath, "/")
	if users == "" {
		users = defaultUsersPath
	}
	expr := opts.RolePath
	if expr == "" {
		expr = defaultRolePath
	}
	role, err := util.CompilePath(expr)
	if err != nil {
		return nil, fmt.Errorf("role path: %w", err)
	}
	return &HTTP{client: client, usersPath: users, role: role}, nil
}

// LookupRole returns RoleNone with a nil error when the user does not exist.
func (d *HTTP) LookupRole(ctx context.Context, principalID string) (domainauth.Role, error) {
	if principalID == "" {
		return domainauth.RoleNone, nil
	}
	var body any
	err := d.client.Do(ctx, http.MethodGet, d.usersPath+"/"+url.PathEscape(principalID), nil, &body)
	if err != nil {
		if apperrors.StatusOf(err) == http.StatusNotFound {
			return domainauth.RoleNone, nil
		}
		return domainauth.RoleNone, fmt.Errorf("directory lookup: %w", err)
	}
	return domainauth.ParseRole(d.role.String(body)), nil
}
