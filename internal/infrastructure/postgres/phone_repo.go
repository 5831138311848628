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

type PhoneCodeRepository struct {
	pool *pgxpool.Pool
}

func NewPhoneCodeRepository(pool *pgxpool.Pool) *PhoneCodeRepository {
	return &PhoneCodeRepository{pool: pool}
}

// Replace keeps at most one pending code per phone number.
func (r *PhoneCodeRepository) Replace(ctx context.Context, phone, codeHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO phone_codes (phone, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone)
		DO UPDATE SET code_hash = EXCLUDED.code_hash,
		              expires_at = EXCLUDED.expires_at,
		              created_at = NOW()`,
		phone, codeHash, expiresAt)
	if err != nil {
		return fmt.Errorf("replace phone code: %w", err)
	}
	return nil
}

func (r *PhoneCodeRepository) Claim(ctx context.Context, phone, codeHash string) (*domain.PhoneCode, error) {
	var c domain.PhoneCode
	err := r.pool.QueryRow(ctx, `
		DELETE FROM phone_codes
		WHERE phone = $1 AND code_hash = $2 AND expires_at > NOW()
		RETURNING id, phone, code_hash, expires_at, created_at`,
		phone, codeHash).Scan(&c.ID, &c.Phone, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeInvalid
		}
		return nil, fmt.Errorf("claim phone code: %w", err)
	}
	return &c, nil
}

func (r *PhoneCodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM phone_codes WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired phone codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
