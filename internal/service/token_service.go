package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinic-auth-api/internal/model"
)

// tokenSecretBytes gives 264 bits of entropy per token secret.
const tokenSecretBytes = 33

// TokenStore persists issued tokens. Implemented by repository.TokenRepository.
type TokenStore interface {
	Store(ctx context.Context, t model.AccessToken) error
	Find(ctx context.Context, id uuid.UUID) (model.AccessToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TokenService issues and validates opaque bearer tokens. The plaintext
// handed to the client is "<token-id>|<secret>"; only the SHA-256 digest of
// the secret is stored, so a leaked token table cannot be replayed.
type TokenService struct {
	tokens TokenStore
	users  UserStore
}

func NewTokenService(tokens TokenStore, users UserStore) *TokenService {
	return &TokenService{tokens: tokens, users: users}
}

// Issue mints a token for the user. The returned plaintext is the only copy;
// it is never persisted or logged.
func (s *TokenService) Issue(ctx context.Context, user model.User, name string) (string, model.AccessToken, error) {
	secretRaw := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(secretRaw); err != nil {
		return "", model.AccessToken{}, fmt.Errorf("generate token secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(secretRaw)

	token := model.AccessToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      name,
		TokenHash: hashSecret(secret),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.tokens.Store(ctx, token); err != nil {
		return "", model.AccessToken{}, err
	}

	return token.ID.String() + "|" + secret, token, nil
}

// Authenticate resolves a presented bearer token to its owning user.
// Malformed, unknown and mismatching tokens all fail with the same error.
func (s *TokenService) Authenticate(ctx context.Context, presented string) (model.User, model.AccessToken, error) {
	id, secret, ok := splitToken(presented)
	if !ok {
		return model.User{}, model.AccessToken{}, model.ErrInvalidToken
	}

	token, err := s.tokens.Find(ctx, id)
	if err != nil {
		return model.User{}, model.AccessToken{}, model.ErrInvalidToken
	}

	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hashSecret(secret))) != 1 {
		return model.User{}, model.AccessToken{}, model.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		return model.User{}, model.AccessToken{}, model.ErrInvalidToken
	}

	// Best effort; a failed touch must not fail the request.
	if err := s.tokens.TouchLastUsed(ctx, token.ID, time.Now().UTC()); err != nil {
		slog.Warn("failed to touch access token", "token_id", token.ID, "error", err)
	}

	return user, token, nil
}

// Revoke deletes exactly the identified token. Idempotent; the user's other
// tokens are untouched.
func (s *TokenService) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	return s.tokens.Delete(ctx, tokenID)
}

func splitToken(presented string) (uuid.UUID, string, bool) {
	idPart, secret, found := strings.Cut(strings.TrimSpace(presented), "|")
	if !found || secret == "" {
		return uuid.Nil, "", false
	}

	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, secret, true
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
