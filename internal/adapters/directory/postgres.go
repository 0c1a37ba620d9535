package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	apperrors "github.com/target/ctf-console/internal/errors"
)

// Schema is the minimal users table the Postgres directory reads.
const Schema = `CREATE TABLE IF NOT EXISTS users (
	external_id TEXT PRIMARY KEY,
	role        TEXT NOT NULL DEFAULT 'NONE',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectRoleSQL = `SELECT role FROM users WHERE external_id = $1`

// Postgres reads roles from the console database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres directory over pool.
func NewPostgres(pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("pgx pool is required")
	}
	return &Postgres{pool: pool}, nil
}

// LookupRole returns RoleNone with a nil error for unknown principals.
func (d *Postgres) LookupRole(ctx context.Context, principalID string) (domainauth.Role, error) {
	if principalID == "" {
		return domainauth.RoleNone, nil
	}
	var raw string
	err := d.pool.QueryRow(ctx, selectRoleSQL, principalID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainauth.RoleNone, nil
	}
	if err != nil {
		return domainauth.RoleNone, fmt.Errorf("select role: %w", apperrors.MapDBError(err))
	}
	return domainauth.ParseRole(raw), nil
}

// UpsertRole records role for principalID. Used by the admin CLI and tests.
func (d *Postgres) UpsertRole(ctx context.Context, principalID string, role domainauth.Role) error {
	if principalID == "" {
		return apperrors.ValidationField("principal_id", "principal id cannot be empty")
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (external_id, role, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (external_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()`,
		principalID, string(role))
	if err != nil {
		return fmt.Errorf("upsert role: %w", apperrors.MapDBError(err))
	}
	return nil
}
