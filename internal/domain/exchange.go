package domain

import (
	"slices"
	"time"
)

// ExchangeStatus is the lifecycle state of an exchange.
type ExchangeStatus string

const (
	ExchangeStatusPending   ExchangeStatus = "pending"
	ExchangeStatusActive    ExchangeStatus = "active"
	ExchangeStatusCompleted ExchangeStatus = "completed"
	ExchangeStatusCancelled ExchangeStatus = "cancelled"
)

// exchangeTransitions lists the states reachable from each state.
// Terminal states have no entry.
var exchangeTransitions = map[ExchangeStatus][]ExchangeStatus{
	ExchangeStatusPending: {ExchangeStatusActive, ExchangeStatusCancelled},
	ExchangeStatusActive:  {ExchangeStatusCompleted, ExchangeStatusCancelled},
}

// Valid reports whether s is a known exchange status.
func (s ExchangeStatus) Valid() bool {
	switch s {
	case ExchangeStatusPending, ExchangeStatusActive, ExchangeStatusCompleted, ExchangeStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an exchange in state s may move to next.
func (s ExchangeStatus) CanTransitionTo(next ExchangeStatus) bool {
	return slices.Contains(exchangeTransitions[s], next)
}

// IsTerminal reports whether no transition leaves s.
func (s ExchangeStatus) IsTerminal() bool {
	return s == ExchangeStatusCompleted || s == ExchangeStatusCancelled
}

// BookStatus returns the status the exchanged book takes while the exchange is in state s.
func (s ExchangeStatus) BookStatus() BookStatus {
	switch s {
	case ExchangeStatusActive:
		return BookStatusBorrowed
	case ExchangeStatusCompleted, ExchangeStatusCancelled:
		return BookStatusAvailable
	default:
		return BookStatusPending
	}
}

// ExchangeRole selects exchanges by the current user's side of the deal.
type ExchangeRole string

const (
	ExchangeRoleAny      ExchangeRole = ""
	ExchangeRoleOwner    ExchangeRole = "owner"
	ExchangeRoleBorrower ExchangeRole = "borrower"
)

// Exchange is a negotiated transfer of a book between its owner and a borrower.
type Exchange struct {
	ID              string         `json:"id"`
	BookID          string         `json:"book_id"`
	Type            BookType       `json:"type"`
	OwnerID         string         `json:"owner_id"`
	BorrowerID      string         `json:"borrower_id"`
	Status          ExchangeStatus `json:"status"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"` // set once, on reaching a terminal state
	Notes           string         `json:"notes,omitempty"`
	Price           float64        `json:"price"`
	ReturnCondition string         `json:"return_condition,omitempty"`
	ReturnNotes     string         `json:"return_notes,omitempty"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
}

// IsParticipant reports whether userID is the owner or the borrower.
func (e *Exchange) IsParticipant(userID string) bool {
	return userID != "" && (e.OwnerID == userID || e.BorrowerID == userID)
}

// HasRole reports whether userID takes the given role in e.
func (e *Exchange) HasRole(userID string, role ExchangeRole) bool {
	switch role {
	case ExchangeRoleOwner:
		return e.OwnerID == userID
	case ExchangeRoleBorrower:
		return e.BorrowerID == userID
	default:
		return e.IsParticipant(userID)
	}
}
