package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user can register with. Stored verbatim in users.role.
const (
	RolePatient       = "patient"
	RoleDoctor        = "doctor"
	RoleAdministrator = "administrator"
)

func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleAdministrator:
		return true
	}
	return false
}

type User struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"nombre_usuario"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"rol_usuario"`
	PatientID       *int64     `json:"paciente_id"`
	DoctorID        *int64     `json:"medico_id"`
	EmailVerifiedAt *time.Time `json:"email_verificado_en"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PublicUser is the only projection of a user that leaves the API.
// The password hash has no field here, so it cannot be serialized by mistake.
type PublicUser struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"nombre_usuario"`
	Email           string     `json:"email"`
	Role            string     `json:"rol_usuario"`
	PatientID       *int64     `json:"paciente_id,omitempty"`
	DoctorID        *int64     `json:"medico_id,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verificado_en,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		PatientID:       u.PatientID,
		DoctorID:        u.DoctorID,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
	}
}
