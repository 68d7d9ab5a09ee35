// Package memory implements the credential store in process memory for
// development and tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"

	"github.com/google/uuid"
)

// UserRepository keeps users in maps guarded by a single RWMutex. Stored
// values are copies; callers never share memory with the store.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*entity.User
	byUsername map[string]string
	byEmail    map[string]string
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.HealthChecker  = (*UserRepository)(nil)
)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*entity.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (s *UserRepository) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return domainerrors.ErrUsernameTaken
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return domainerrors.ErrEmailTaken
	}

	now := time.Now().UTC()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.byID[stored.ID] = &stored
	s.byUsername[stored.Username] = stored.ID
	s.byEmail[stored.Email] = stored.ID

	return nil
}

func (s *UserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(id)
}

func (s *UserRepository) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.byUsername[username])
}

func (s *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.byEmail[email])
}

// lookup must be called with mu held.
func (s *UserRepository) lookup(id string) (*entity.User, error) {
	stored, ok := s.byID[id]
	if !ok {
		return nil, domainerrors.ErrUserNotFound
	}

	found := *stored

	return &found, nil
}

// Update writes email and password hash, re-indexing the email.
func (s *UserRepository) Update(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[user.ID]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	if owner, taken := s.byEmail[user.Email]; taken && owner != user.ID {
		return domainerrors.ErrEmailTaken
	}

	delete(s.byEmail, stored.Email)
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = time.Now().UTC()
	s.byEmail[stored.Email] = stored.ID

	user.UpdatedAt = stored.UpdatedAt

	return nil
}

func (s *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUsername[username]

	return ok, nil
}

func (s *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[email]

	return ok, nil
}

// Ping always succeeds.
func (s *UserRepository) Ping(context.Context) error {
	return nil
}
