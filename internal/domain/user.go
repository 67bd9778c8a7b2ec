// Package domain contains the core entities of the book exchange marketplace.
package domain

import (
	"strings"
	"time"
)

// DefaultProfileImage is assigned to newly registered users.
const DefaultProfileImage = "https://via.placeholder.com/150"

// Review is feedback left on a user after an exchange.
type Review struct {
	ReviewerID string    `json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Date       time.Time `json:"date"`
}

// User is a registered marketplace member as persisted in the store.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password"`
	University    string    `json:"university"`
	StudyField    string    `json:"study_field"`
	JoinDate      time.Time `json:"join_date"`
	ProfileImage  string    `json:"profile_image"`
	BooksAdded    int       `json:"books_added"`
	BooksLent     int       `json:"books_lent"`
	BooksBorrowed int       `json:"books_borrowed"`
	Rating        float64   `json:"rating"`
	Reviews       []Review  `json:"reviews"`
}

// SessionUser is the password-free projection of a User held by a session
// and returned to callers.
type SessionUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	University    string    `json:"university"`
	StudyField    string    `json:"study_field"`
	JoinDate      time.Time `json:"join_date"`
	ProfileImage  string    `json:"profile_image"`
	BooksAdded    int       `json:"books_added"`
	BooksLent     int       `json:"books_lent"`
	BooksBorrowed int       `json:"books_borrowed"`
	Rating        float64   `json:"rating"`
	Reviews       []Review  `json:"reviews"`
}

// Session returns the redacted projection of u.
func (u *User) Session() *SessionUser {
	reviews := make([]Review, len(u.Reviews))
	copy(reviews, u.Reviews)
	return &SessionUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		University:    u.University,
		StudyField:    u.StudyField,
		JoinDate:      u.JoinDate,
		ProfileImage:  u.ProfileImage,
		BooksAdded:    u.BooksAdded,
		BooksLent:     u.BooksLent,
		BooksBorrowed: u.BooksBorrowed,
		Rating:        u.Rating,
		Reviews:       reviews,
	}
}

// EmailTaken reports whether a user other than selfID registered email.
// Emails compare case-insensitively.
func EmailTaken(users []User, selfID, email string) bool {
	for i := range users {
		if users[i].ID != selfID && strings.EqualFold(users[i].Email, email) {
			return true
		}
	}
	return false
}

// UsernameTaken reports whether a user other than selfID uses username.
func UsernameTaken(users []User, selfID, username string) bool {
	for i := range users {
		if users[i].ID != selfID && users[i].Username == username {
			return true
		}
	}
	return false
}
