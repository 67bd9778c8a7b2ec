package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookexchange/bookexchange/internal/auth"
	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/id"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
	"github.com/bookexchange/bookexchange/internal/validation"
)

// UserService is the user registry: registration, login, and profiles.
type UserService struct {
	kv        store.KV
	hasher    *auth.Hasher
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(kv store.KV, hasher *auth.Hasher, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		kv:        kv,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
		now:       clock,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Username   string `json:"username" validate:"notblank,min=3,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=1024"`
	University string `json:"university" validate:"max=200"`
	StudyField string `json:"study_field" validate:"max=200"`
}

// ProfileUpdate lists the profile fields a user may change. Nil fields are left untouched.
type ProfileUpdate struct {
	Username     *string `json:"username,omitempty" validate:"omitempty,notblank,min=3,max=50"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Password     *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
	University   *string `json:"university,omitempty" validate:"omitempty,max=200"`
	StudyField   *string `json:"study_field,omitempty" validate:"omitempty,max=200"`
	ProfileImage *string `json:"profile_image,omitempty" validate:"omitempty,url"`
}

// Register creates an account and opens the session as the new user.
func (s *UserService) Register(ctx context.Context, sess *session.Session, req RegisterRequest) (*domain.SessionUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := domain.User{
		ID:           userID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		University:   req.University,
		StudyField:   req.StudyField,
		JoinDate:     s.now(),
		ProfileImage: domain.DefaultProfileImage,
		Reviews:      []domain.Review{},
	}

	err = s.kv.Update(ctx, func(tx store.Txn) error {
		users, err := store.Users.Load(tx)
		if err != nil {
			return err
		}
		if err := checkUnique(users, "", user.Email, user.Username); err != nil {
			return err
		}
		return store.Users.Save(tx, append(users, user))
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	}

	sess.Set(user.Session())
	return user.Session(), nil
}

// Login opens the session for the account with the given email and password.
// Unknown emails and wrong passwords fail identically.
func (s *UserService) Login(ctx context.Context, sess *session.Session, email, password string) (*domain.SessionUser, error) {
	email = strings.TrimSpace(email)

	var user *domain.User
	err := s.kv.View(ctx, func(tx store.Txn) error {
		users, err := store.Users.Load(tx)
		if err != nil {
			return err
		}
		if i := store.IndexFunc(users, func(u *domain.User) bool { return strings.EqualFold(u.Email, email) }); i >= 0 {
			user = &users[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if user == nil || !s.hasher.Verify(user.PasswordHash, password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	sess.Set(user.Session())
	return user.Session(), nil
}

// Logout clears the session. It always succeeds.
func (s *UserService) Logout(sess *session.Session) {
	if s.logger != nil && sess.IsAuthenticated() {
		s.logger.Info("User logged out", "user_id", sess.UserID())
	}
	sess.Clear()
}

// UpdateProfile applies patch to the session user's account.
// The stored password is kept unless patch supplies a new one.
func (s *UserService) UpdateProfile(ctx context.Context, sess *session.Session, patch ProfileUpdate) (*domain.SessionUser, error) {
	current, err := requireUser(sess, "update your profile")
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	var passwordHash string
	if patch.Password != nil {
		if passwordHash, err = s.hasher.Hash(*patch.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	var updated domain.User
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		users, err := store.Users.Load(tx)
		if err != nil {
			return err
		}

		i := store.IndexFunc(users, func(u *domain.User) bool { return u.ID == current.ID })
		if i < 0 {
			return domainerrors.NotFound("user not found")
		}
		u := &users[i]

		email, username := u.Email, u.Username
		if patch.Email != nil {
			email = strings.TrimSpace(*patch.Email)
		}
		if patch.Username != nil {
			username = strings.TrimSpace(*patch.Username)
		}
		if err := checkUnique(users, u.ID, email, username); err != nil {
			return err
		}

		u.Email, u.Username = email, username
		if patch.University != nil {
			u.University = *patch.University
		}
		if patch.StudyField != nil {
			u.StudyField = *patch.StudyField
		}
		if patch.ProfileImage != nil {
			u.ProfileImage = *patch.ProfileImage
		}
		if passwordHash != "" {
			u.PasswordHash = passwordHash
		}

		updated = *u
		return store.Users.Save(tx, users)
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Profile updated", "user_id", updated.ID)
	}

	sess.Set(updated.Session())
	return updated.Session(), nil
}

// GetByID returns the password-free projection of a user.
func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.SessionUser, error) {
	var user *domain.User
	err := s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		user, err = findUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domainerrors.NotFoundf("user %s not found", userID)
	}
	return user.Session(), nil
}

// checkUnique reports a conflict when another user than selfID already uses
// email or username. Emails compare case-insensitively.
func checkUnique(users []domain.User, selfID, email, username string) error {
	if domain.EmailTaken(users, selfID, email) {
		return domainerrors.DuplicateEmail("email address is already in use")
	}
	if domain.UsernameTaken(users, selfID, username) {
		return domainerrors.DuplicateUsername("username is already taken")
	}
	return nil
}

// findUser returns the user with userID, or nil when there is none.
func findUser(tx store.Txn, userID string) (*domain.User, error) {
	users, err := store.Users.Load(tx)
	if err != nil {
		return nil, err
	}
	if i := store.IndexFunc(users, func(u *domain.User) bool { return u.ID == userID }); i >= 0 {
		return &users[i], nil
	}
	return nil, nil
}

// recountBooksAdded sets the owner's booksAdded to the number of books they
// currently list and returns the updated user, or nil when the owner has no account.
func recountBooksAdded(tx store.Txn, ownerID string, books []domain.Book) (*domain.User, error) {
	users, err := store.Users.Load(tx)
	if err != nil {
		return nil, err
	}
	i := store.IndexFunc(users, func(u *domain.User) bool { return u.ID == ownerID })
	if i < 0 {
		return nil, nil
	}

	users[i].BooksAdded = domain.CountOwned(books, ownerID)

	if err := store.Users.Save(tx, users); err != nil {
		return nil, err
	}
	u := users[i]
	return &u, nil
}
