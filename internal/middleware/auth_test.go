package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-auth-api/internal/model"
)

type stubAuthenticator struct {
	accept string
	user   model.User
	token  model.AccessToken
}

func (s *stubAuthenticator) Authenticate(_ context.Context, presented string) (model.User, model.AccessToken, error) {
	if presented == s.accept {
		return s.user, s.token, nil
	}
	return model.User{}, model.AccessToken{}, model.ErrInvalidToken
}

func newAuthTestHandler(t *testing.T) (http.Handler, *stubAuthenticator) {
	t.Helper()

	stub := &stubAuthenticator{
		accept: "good-token",
		user:   model.User{ID: uuid.New(), Username: "ana", Role: model.RolePatient},
		token:  model.AccessToken{ID: uuid.New()},
	}

	mw := NewAuthMiddleware(stub)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, stub.user.ID, principal.User.ID)
		assert.Equal(t, stub.token.ID, principal.Token.ID)
		w.WriteHeader(http.StatusOK)
	})

	return mw.RequireAuth(next), stub
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"missing or invalid authorization header"}`, rec.Body.String())
}

func TestAuthMiddleware_NonBearerScheme(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"invalid token"}`, rec.Body.String())
}

func TestAuthMiddleware_ValidTokenPassesPrincipal(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
