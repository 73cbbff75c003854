package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-auth-api/internal/model"
	"clinic-auth-api/pkg/apierror"
)

func newTestAuthService(t *testing.T) (*AuthService, *memUserStore, *memTokenStore) {
	t.Helper()

	users := newMemUserStore()
	tokens := newMemTokenStore()
	profiles := newMemProfileStore([]int64{1}, []int64{7})
	hasher := NewPasswordHasher(10)

	return NewAuthService(users, profiles, hasher, NewTokenService(tokens, users)), users, tokens
}

func validRegisterRequest() model.RegisterRequest {
	return model.RegisterRequest{
		Username:             "ana",
		Email:                "ana@x.com",
		Password:             "longpass1",
		PasswordConfirmation: "longpass1",
		Role:                 model.RolePatient,
	}
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.NotEmpty(t, apiErr.Fields)
	return apiErr.Fields
}

func TestAuthService_RegisterStoresHashedPassword(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)
	require.NotEmpty(t, result.PlainToken)
	assert.Equal(t, "ana", result.User.Username)
	assert.Equal(t, "ana@x.com", result.User.Email)

	stored, err := users.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "longpass1", stored.PasswordHash)
	assert.True(t, NewPasswordHasher(10).Verify("longpass1", stored.PasswordHash))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*model.RegisterRequest)
		field   string
		message string
	}{
		{"missing username", func(r *model.RegisterRequest) { r.Username = "" }, "nombre_usuario", "is required"},
		{"missing email", func(r *model.RegisterRequest) { r.Email = "" }, "email", "is required"},
		{"bad email", func(r *model.RegisterRequest) { r.Email = "not-an-email" }, "email", "must be a valid email address"},
		{"missing password", func(r *model.RegisterRequest) { r.Password = "" }, "contrasena", "is required"},
		{"short password", func(r *model.RegisterRequest) { r.Password = "short1"; r.PasswordConfirmation = "short1" }, "contrasena", "must be at least 8 characters"},
		{"confirmation mismatch", func(r *model.RegisterRequest) { r.PasswordConfirmation = "different1" }, "contrasena", "confirmation does not match"},
		{"missing role", func(r *model.RegisterRequest) { r.Role = "" }, "rol_usuario", "is required"},
		{"unknown role", func(r *model.RegisterRequest) { r.Role = "nurse" }, "rol_usuario", "must be one of patient, doctor, administrator"},
		{"unknown patient ref", func(r *model.RegisterRequest) { id := int64(99); r.PatientID = &id }, "paciente_id", "referenced patient does not exist"},
		{"unknown doctor ref", func(r *model.RegisterRequest) { id := int64(99); r.DoctorID = &id }, "medico_id", "referenced doctor does not exist"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegisterRequest()
			tc.mutate(&req)

			_, err := svc.Register(ctx, req)
			fields := fieldErrors(t, err)
			assert.Contains(t, fields[tc.field], tc.message)
		})
	}
}

func TestAuthService_RegisterValidationWritesNothing(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	ctx := context.Background()

	req := validRegisterRequest()
	req.Role = "nurse"

	_, err := svc.Register(ctx, req)
	require.Error(t, err)

	_, err = users.FindByEmail(ctx, req.Email)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	assert.Zero(t, tokens.count())
}

func TestAuthService_RegisterAcceptsKnownReferences(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	req := validRegisterRequest()
	patientID := int64(1)
	req.PatientID = &patientID

	result, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result.User.PatientID)
	assert.Equal(t, patientID, *result.User.PatientID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	req := validRegisterRequest()
	req.Username = "otra"
	_, err = svc.Register(ctx, req)
	fields := fieldErrors(t, err)
	assert.Contains(t, fields["email"], "has already been taken")

	// Same outcome when only the case of the email differs.
	req.Email = "ANA@X.COM"
	_, err = svc.Register(ctx, req)
	fields = fieldErrors(t, err)
	assert.Contains(t, fields["email"], "has already been taken")
}

func TestAuthService_ConcurrentRegistrationsSameEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRegisterRequest()
			req.Username = fmt.Sprintf("ana-%d", i)
			_, results[i] = svc.Register(ctx, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Contains(t, apiErr.Fields["email"], "has already been taken")
	}
	assert.Equal(t, 1, succeeded)
}

func TestAuthService_LoginRoundTrip(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	logged, err := svc.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "longpass1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
	assert.NotEqual(t, registered.PlainToken, logged.PlainToken)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "wrongpass1"})
	_, unknownEmail := svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Password: "longpass1"})

	assert.ErrorIs(t, wrongPassword, model.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, model.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_LoginValidatesPresence(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), model.LoginRequest{})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields["email"], "is required")
	assert.Contains(t, fields["contrasena"], "is required")
}

func TestAuthService_LoginRejectsMalformedEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	// A syntactically broken email is a field error, not a credentials
	// failure. Real credentials still work afterwards.
	_, err = svc.Login(ctx, model.LoginRequest{Email: "not-an-email", Password: "longpass1"})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields["email"], "must be a valid email address")

	_, err = svc.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "longpass1"})
	assert.NoError(t, err)
}

func TestAuthService_MultiSessionAndExactLogout(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	// Register, then log in: two independent sessions.
	first, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)
	second, err := svc.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "longpass1"})
	require.NoError(t, err)

	tokenSvc := svc.tokens
	_, firstToken, err := tokenSvc.Authenticate(ctx, first.PlainToken)
	require.NoError(t, err)
	_, secondToken, err := tokenSvc.Authenticate(ctx, second.PlainToken)
	require.NoError(t, err)
	require.NotEqual(t, firstToken.ID, secondToken.ID)

	// Logging out the second session kills only the second token.
	require.NoError(t, svc.Logout(ctx, secondToken.ID))

	_, _, err = tokenSvc.Authenticate(ctx, second.PlainToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	_, _, err = tokenSvc.Authenticate(ctx, first.PlainToken)
	assert.NoError(t, err)
}

func TestAuthService_ProfileNeverSerializesPasswordHash(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, profile.ID)

	raw, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "contrasena")
	assert.NotContains(t, string(raw), "$2a$")
}

func TestAuthService_ProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
