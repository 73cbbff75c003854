//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"clinic-auth-api/internal/config"
	"clinic-auth-api/internal/handler"
	"clinic-auth-api/internal/middleware"
	"clinic-auth-api/internal/model"
	"clinic-auth-api/internal/router"
	"clinic-auth-api/internal/service"
)

// The suite runs the real router, middleware, handlers and services against
// in-memory stores, so the full HTTP contract is exercised without Postgres.

type memStores struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	tokens   map[uuid.UUID]model.AccessToken
	patients map[int64]bool
	doctors  map[int64]bool
}

func newMemStores() *memStores {
	return &memStores{
		users:    map[uuid.UUID]model.User{},
		tokens:   map[uuid.UUID]model.AccessToken{},
		patients: map[int64]bool{1: true},
		doctors:  map[int64]bool{7: true},
	}
}

func (s *memStores) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrEmailTaken
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memStores) FindByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memStores) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStores) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *memStores) Store(_ context.Context, t model.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = t
	return nil
}

func (s *memStores) Find(_ context.Context, id uuid.UUID) (model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return model.AccessToken{}, model.ErrTokenNotFound
	}
	return t, nil
}

func (s *memStores) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

func (s *memStores) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok {
		t.LastUsedAt = &at
		s.tokens[id] = t
	}
	return nil
}

func (s *memStores) PatientExists(_ context.Context, id int64) (bool, error) {
	return s.patients[id], nil
}

func (s *memStores) DoctorExists(_ context.Context, id int64) (bool, error) {
	return s.doctors[id], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	stores := newMemStores()
	hasher := service.NewPasswordHasher(10)
	tokenService := service.NewTokenService(stores, stores)
	authService := service.NewAuthService(stores, stores, hasher, tokenService)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	authHandler := handler.NewAuthHandler(authService)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		BcryptCost:       10,
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, nil))
	t.Cleanup(server.Close)
	return server
}

type apiResponse struct {
	Status      bool                `json:"status"`
	Data        json.RawMessage     `json:"data"`
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	Message     string              `json:"message"`
	Errors      map[string][]string `json:"errors"`
}

func postJSON(t *testing.T, url string, payload any, bearer string) (*http.Response, apiResponse) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return doRequest(t, req)
}

func getJSON(t *testing.T, url string, bearer string) (*http.Response, apiResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return doRequest(t, req)
}

func doRequest(t *testing.T, req *http.Request) (*http.Response, apiResponse) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed apiResponse
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp, parsed
}

func registerPayload() map[string]any {
	return map[string]any{
		"nombre_usuario":          "ana",
		"email":                   "ana@x.com",
		"contrasena":              "longpass1",
		"contrasena_confirmation": "longpass1",
		"rol_usuario":             "patient",
	}
}
