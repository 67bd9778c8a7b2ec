// Package service implements the marketplace operations: user registry, book
// catalog, exchange engine, and messaging.
//
// Every operation loads the collections it needs, mutates them in memory and
// writes them back inside one store transaction. The current user is passed
// explicitly as a *session.Session.
package service

import (
	"time"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/session"
)

// clock returns the current time in UTC at millisecond precision, so that
// persisted timestamps compare equal after a round trip.
func clock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// requireUser returns the session's user or a NOT_AUTHENTICATED error.
func requireUser(sess *session.Session, action string) (*domain.SessionUser, error) {
	u := sess.User()
	if u == nil {
		return nil, domainerrors.NotAuthenticated("you must be logged in to " + action)
	}
	return u, nil
}

// refreshSession replaces the session projection when the session belongs to u.
func refreshSession(sess *session.Session, u *domain.User) {
	if u != nil && sess.UserID() == u.ID {
		sess.Set(u.Session())
	}
}
