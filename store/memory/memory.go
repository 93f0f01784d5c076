// Package memory is an in-process sessauth.UserStore.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrEthical07/sessauth"
)

// Store keeps users in maps guarded by a RWMutex. The zero value is not
// usable; call New.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]sessauth.UserRecord
	byEmail map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[string]sessauth.UserRecord),
		byEmail: make(map[string]string),
	}
}

// CreateUser inserts in unless its email or id is already taken.
func (s *Store) CreateUser(ctx context.Context, in sessauth.CreateUserInput) (sessauth.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return sessauth.UserRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[in.Email]; ok {
		return sessauth.UserRecord{}, fmt.Errorf("email %q: %w", in.Email, sessauth.ErrDuplicateUser)
	}
	if _, ok := s.byID[in.UserID]; ok {
		return sessauth.UserRecord{}, fmt.Errorf("id %q: %w", in.UserID, sessauth.ErrDuplicateUser)
	}

	rec := sessauth.UserRecord(in)
	s.byID[rec.UserID] = rec
	s.byEmail[rec.Email] = rec.UserID
	return rec, nil
}

// GetUserByEmail returns the record registered under email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (sessauth.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return sessauth.UserRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return sessauth.UserRecord{}, sessauth.ErrUserNotFound
	}
	return s.byID[id], nil
}

// UpdatePasswordHash replaces the stored hash of userID.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[userID]
	if !ok {
		return sessauth.ErrUserNotFound
	}
	rec.PasswordHash = passwordHash
	s.byID[userID] = rec
	return nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
