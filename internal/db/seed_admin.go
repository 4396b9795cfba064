package db

import (
	"context"
	"errors"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/config"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/repo/postgres"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser bootstraps the administrative account. Idempotent: if a user
// already owns the configured email nothing changes. This is the only path
// that creates a user with the admin role.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	repo := postgres.NewUsersRepo(pool, nil)

	_, err = repo.Create(ctx, cfg.AdminName, email, hash, user.RoleAdmin)

	if errors.Is(err, postgres.ErrEmailTaken) {
		// lost the race to a concurrent boot; the admin exists
		return nil
	}

	return err
}
