package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGDirectory implements Directory against the users table.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewPGDirectory wraps an initialized connection pool.
func NewPGDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

// Exists reports whether the identity resolves to a known user.
func (d *PGDirectory) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// DisplayInfo returns the user's display name and avatar reference.
func (d *PGDirectory) DisplayInfo(ctx context.Context, id string) (Info, error) {
	var info Info
	err := d.pool.QueryRow(ctx,
		`SELECT display_name, coalesce(avatar_ref, '') FROM users WHERE id = $1`, id).
		Scan(&info.Name, &info.Avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Info{}, fmt.Errorf("user %s not found", id)
		}
		return Info{}, fmt.Errorf("display info: %w", err)
	}
	return info, nil
}
