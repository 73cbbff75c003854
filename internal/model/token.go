package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessToken is the stored form of an issued bearer token. TokenHash holds
// the SHA-256 hex digest of the random secret; the plaintext secret exists
// only in the response that delivered it to the client.
type AccessToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
