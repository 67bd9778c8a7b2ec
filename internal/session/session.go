// Package session holds the authenticated user for a sequence of service calls.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookexchange/bookexchange/internal/domain"
	"github.com/bookexchange/bookexchange/internal/store"
)

// Key is where a persisted session lives in the store.
const Key = "bookexchange:session"

// Session is the current-user accessor passed into every service call.
// The zero value is an anonymous session.
type Session struct {
	user *domain.SessionUser
}

// New returns an anonymous session.
func New() *Session {
	return &Session{}
}

// For returns a session already authenticated as u.
func For(u *domain.SessionUser) *Session {
	return &Session{user: u}
}

// User returns the authenticated user, or nil.
func (s *Session) User() *domain.SessionUser {
	if s == nil {
		return nil
	}
	return s.user
}

// UserID returns the authenticated user's id, or "".
func (s *Session) UserID() string {
	if u := s.User(); u != nil {
		return u.ID
	}
	return ""
}

// IsAuthenticated reports whether a user is set.
func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// Set replaces the authenticated user.
func (s *Session) Set(u *domain.SessionUser) {
	s.user = u
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.user = nil
}

// Load restores the session persisted in kv. A missing record yields an anonymous session.
func Load(ctx context.Context, kv store.KV) (*Session, error) {
	var u domain.SessionUser
	err := kv.View(ctx, func(tx store.Txn) error {
		return tx.Get(Key, &u)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return For(&u), nil
}

// Save persists s to kv, removing the record when s is anonymous.
func Save(ctx context.Context, kv store.KV, s *Session) error {
	err := kv.Update(ctx, func(tx store.Txn) error {
		if !s.IsAuthenticated() {
			return tx.Delete(Key)
		}
		return tx.Set(Key, s.User())
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
