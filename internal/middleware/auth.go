package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"clinic-auth-api/internal/model"
)

type tokenAuthenticator interface {
	Authenticate(ctx context.Context, presented string) (model.User, model.AccessToken, error)
}

// Principal is the authenticated identity the middleware hands to handlers:
// the resolved user plus the token that authenticated this request, so
// logout can revoke exactly this session.
type Principal struct {
	User  model.User
	Token model.AccessToken
}

type contextKey string

const principalContextKey contextKey = "auth_principal"

type AuthMiddleware struct {
	authenticator tokenAuthenticator
}

func NewAuthMiddleware(authenticator tokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeUnauthorized(w, "missing or invalid authorization header")
			return
		}

		presented := strings.TrimSpace(header[7:])
		user, token, err := m.authenticator.Authenticate(r.Context(), presented)
		if err != nil {
			writeUnauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, &Principal{User: user, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(*Principal)
	return principal, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Status:  false,
		Message: message,
	})
}
