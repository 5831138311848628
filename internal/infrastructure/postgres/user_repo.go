package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/repository"
)

const userColumns = `id, provider, provider_id, email, password_hash, name, role,
	session_version, active, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_id = $2`,
		provider, providerID)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, in repository.CreateUserInput) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (provider, provider_id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		in.Provider, in.ProviderID, in.Email, in.PasswordHash, in.Name, in.Role)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) FindOrCreateByProviderID(ctx context.Context, in repository.CreateUserInput) (*domain.User, error) {
	// The partial unique index on (provider, provider_id) makes the upsert
	// atomic: concurrent first contacts converge on one row.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (provider, provider_id, email, name, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_id) WHERE provider_id IS NOT NULL
		DO UPDATE SET updated_at = NOW()
		RETURNING `+userColumns,
		in.Provider, in.ProviderID, in.Email, in.Name, in.Role)

	u, err := scanUser(row)
	if err != nil {
		// The provider_id conflict is absorbed by the upsert, so a unique
		// violation here can only be the email index.
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+userColumns,
		id, name)
	return scanUser(row)
}

func (r *UserRepository) BumpSessionVersion(ctx context.Context, id int64) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET session_version = session_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING session_version`,
		id).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("bump session version: %w", err)
	}
	return version, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &u.PasswordHash,
		&u.Name, &u.Role, &u.SessionVersion, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
