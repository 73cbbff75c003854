package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinic-auth-api/internal/model"
	"clinic-auth-api/pkg/apierror"
)

// UserStore persists user records. Implemented by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// ProfileStore checks that referenced patient/doctor records exist.
// Implemented by repository.ProfileRepository.
type ProfileStore interface {
	PatientExists(ctx context.Context, id int64) (bool, error)
	DoctorExists(ctx context.Context, id int64) (bool, error)
}

// AuthResult is what register and login hand back: the public projection of
// the user plus the one-time plaintext token.
type AuthResult struct {
	User       model.PublicUser
	PlainToken string
}

const sessionTokenName = "auth_token"

type AuthService struct {
	users    UserStore
	profiles ProfileStore
	hasher   *PasswordHasher
	tokens   *TokenService
}

func NewAuthService(users UserStore, profiles ProfileStore, hasher *PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{users: users, profiles: profiles, hasher: hasher, tokens: tokens}
}

// Register validates the request, creates the user and issues the first
// session token. Nothing is written unless every check passes; the DB unique
// index still has the final say on email uniqueness.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validateRegister(ctx, req); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AuthResult{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			// Lost the race against a concurrent registration.
			return AuthResult{}, apierror.Validation(map[string][]string{
				"email": {"has already been taken"},
			})
		}
		return AuthResult{}, err
	}

	plain, _, err := s.tokens.Issue(ctx, user, sessionTokenName)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: user.Public(), PlainToken: plain}, nil
}

// Login verifies credentials and issues a new token. Prior tokens stay
// valid; every device holds its own session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string][]string{}
	switch {
	case req.Email == "":
		fields["email"] = append(fields["email"], "is required")
	case !validEmail(req.Email):
		fields["email"] = append(fields["email"], "must be a valid email address")
	}
	if req.Password == "" {
		fields["contrasena"] = append(fields["contrasena"], "is required")
	}
	if len(fields) > 0 {
		return AuthResult{}, apierror.Validation(fields)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return AuthResult{}, model.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return AuthResult{}, model.ErrInvalidCredentials
	}

	plain, _, err := s.tokens.Issue(ctx, user, sessionTokenName)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: user.Public(), PlainToken: plain}, nil
}

// Logout revokes the presented session's token and only that token.
func (s *AuthService) Logout(ctx context.Context, tokenID uuid.UUID) error {
	return s.tokens.Revoke(ctx, tokenID)
}

// Profile returns the public projection of the authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) validateRegister(ctx context.Context, req model.RegisterRequest) error {
	fields := map[string][]string{}
	add := func(field string, message string) {
		fields[field] = append(fields[field], message)
	}

	if req.Username == "" {
		add("nombre_usuario", "is required")
	} else if len(req.Username) > 255 {
		add("nombre_usuario", "must not be longer than 255 characters")
	}

	switch {
	case req.Email == "":
		add("email", "is required")
	case !validEmail(req.Email):
		add("email", "must be a valid email address")
	default:
		taken, err := s.users.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("check email uniqueness: %w", err)
		}
		if taken {
			add("email", "has already been taken")
		}
	}

	switch {
	case req.Password == "":
		add("contrasena", "is required")
	case len(req.Password) < 8:
		add("contrasena", "must be at least 8 characters")
	}
	if req.Password != "" && req.Password != req.PasswordConfirmation {
		add("contrasena", "confirmation does not match")
	}

	switch {
	case req.Role == "":
		add("rol_usuario", "is required")
	case !model.ValidRole(req.Role):
		add("rol_usuario", "must be one of patient, doctor, administrator")
	}

	if req.PatientID != nil {
		exists, err := s.profiles.PatientExists(ctx, *req.PatientID)
		if err != nil {
			return fmt.Errorf("check patient reference: %w", err)
		}
		if !exists {
			add("paciente_id", "referenced patient does not exist")
		}
	}

	if req.DoctorID != nil {
		exists, err := s.profiles.DoctorExists(ctx, *req.DoctorID)
		if err != nil {
			return fmt.Errorf("check doctor reference: %w", err)
		}
		if !exists {
			add("medico_id", "referenced doctor does not exist")
		}
	}

	if len(fields) > 0 {
		return apierror.Validation(fields)
	}
	return nil
}
