package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic-auth-api/internal/model"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Store(ctx context.Context, t model.AccessToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO access_tokens (id, user_id, name, token_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.Name, t.TokenHash, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Find(ctx context.Context, id uuid.UUID) (model.AccessToken, error) {
	var t model.AccessToken
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, token_hash, created_at, last_used_at
		 FROM access_tokens WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.AccessToken{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("find access token: %w", err)
	}
	return t, nil
}

// Delete removes exactly one token row. Deleting a token that is already
// gone is not an error, which makes revocation idempotent.
func (r *TokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	return nil
}

func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE access_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch access token: %w", err)
	}
	return nil
}
