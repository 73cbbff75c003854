package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository answers existence checks for the patient and doctor
// records a registration may reference.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) PatientExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient exists: %w", err)
	}
	return exists, nil
}

func (r *ProfileRepository) DoctorExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM doctors WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check doctor exists: %w", err)
	}
	return exists, nil
}
