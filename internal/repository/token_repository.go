package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountToken represents stored single-use tokens for password resets and
// email verification.
type AccountToken struct {
	ID        string
	UserID    string
	Purpose   string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Token purposes.
const (
	TokenPurposePasswordReset     = "PASSWORD_RESET"
	TokenPurposeEmailVerification = "EMAIL_VERIFICATION"
)

// TokenRepository manages account token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *AccountToken) error
	GetByToken(ctx context.Context, purpose, token string) (*AccountToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository constructs repository.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Create(ctx context.Context, token *AccountToken) error {
	const query = `
        INSERT INTO account_tokens (user_id, purpose, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.UserID,
		token.Purpose,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *tokenRepository) GetByToken(ctx context.Context, purpose, tokenStr string) (*AccountToken, error) {
	const query = `
        SELECT id, user_id, purpose, token, expires_at, used_at, created_at
        FROM account_tokens WHERE purpose=$1 AND token=$2`
	var token AccountToken
	if err := r.pool.QueryRow(ctx, query, purpose, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Purpose,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE account_tokens SET used_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
