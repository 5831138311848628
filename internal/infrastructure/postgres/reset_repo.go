package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procura-app/procura/internal/domain"
)

type ResetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewResetTokenRepository(pool *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

// Replace supersedes any outstanding token for the user in one statement.
func (r *ResetTokenRepository) Replace(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		WITH superseded AS (
			DELETE FROM reset_tokens WHERE user_id = $1
		)
		INSERT INTO reset_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("replace reset token: %w", err)
	}
	return nil
}

// Claim deletes and returns the matching unexpired token. The DELETE makes
// consumption single-use even under concurrent attempts.
func (r *ResetTokenRepository) Claim(ctx context.Context, tokenHash string) (*domain.ResetToken, error) {
	var t domain.ResetToken
	err := r.pool.QueryRow(ctx, `
		DELETE FROM reset_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
		RETURNING id, user_id, token_hash, expires_at, created_at`,
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("claim reset token: %w", err)
	}
	return &t, nil
}

func (r *ResetTokenRepository) DeleteForUser(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete reset tokens: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
