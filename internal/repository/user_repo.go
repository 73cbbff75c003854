package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic-auth-api/internal/model"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user. The unique index on lower(email) is the
// authoritative uniqueness check; a violation surfaces as ErrEmailTaken so
// concurrent registrations with the same email lose cleanly.
func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, patient_id, doctor_id, email_verified_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.PatientID, u.DoctorID, u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id), "id")
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectUser+` WHERE lower(email) = lower($1)`, strings.TrimSpace(email)), "email")
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

const selectUser = `SELECT id, username, email, password_hash, role, patient_id, doctor_id, email_verified_at, created_at, updated_at FROM users`

func (r *UserRepository) scanOne(row pgx.Row, by string) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.PatientID, &u.DoctorID, &u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by %s: %w", by, err)
	}
	return u, nil
}
