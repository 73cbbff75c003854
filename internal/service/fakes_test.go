package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinic-auth-api/internal/model"
)

// memUserStore is a threadsafe in-memory UserStore. Create enforces email
// uniqueness atomically, mirroring the database unique index.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uuid.UUID]model.User{}}
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
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

func (s *memUserStore) FindByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]model.AccessToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: map[uuid.UUID]model.AccessToken{}}
}

func (s *memTokenStore) Store(_ context.Context, t model.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = t
	return nil
}

func (s *memTokenStore) Find(_ context.Context, id uuid.UUID) (model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return model.AccessToken{}, model.ErrTokenNotFound
	}
	return t, nil
}

func (s *memTokenStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

func (s *memTokenStore) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[id]; ok {
		t.LastUsedAt = &at
		s.tokens[id] = t
	}
	return nil
}

func (s *memTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// memProfileStore knows a fixed set of patient and doctor ids.
type memProfileStore struct {
	patients map[int64]bool
	doctors  map[int64]bool
}

func newMemProfileStore(patients []int64, doctors []int64) *memProfileStore {
	s := &memProfileStore{patients: map[int64]bool{}, doctors: map[int64]bool{}}
	for _, id := range patients {
		s.patients[id] = true
	}
	for _, id := range doctors {
		s.doctors[id] = true
	}
	return s
}

func (s *memProfileStore) PatientExists(_ context.Context, id int64) (bool, error) {
	return s.patients[id], nil
}

func (s *memProfileStore) DoctorExists(_ context.Context, id int64) (bool, error) {
	return s.doctors[id], nil
}
