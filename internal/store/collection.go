package store

import (
	"errors"

	"github.com/bookexchange/bookexchange/internal/domain"
)

// Keys of the persisted collections.
const (
	KeyUsers         = "bookexchange:users"
	KeyBooks         = "bookexchange:books"
	KeyExchanges     = "bookexchange:exchanges"
	KeyMessages      = "bookexchange:messages"
	KeyConversations = "bookexchange:conversations"
)

// Collection is a list of records stored as one JSON array under a single key.
// Insertion order is the array order.
type Collection[T any] struct {
	key string
}

// NewCollection returns the collection stored at key.
func NewCollection[T any](key string) Collection[T] {
	return Collection[T]{key: key}
}

// Key returns the store key holding the collection.
func (c Collection[T]) Key() string {
	return c.key
}

// Load reads the whole collection. A collection that was never written is empty.
func (c Collection[T]) Load(tx Txn) ([]T, error) {
	var items []T
	err := tx.Get(c.key, &items)
	if errors.Is(err, ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save replaces the whole collection.
func (c Collection[T]) Save(tx Txn, items []T) error {
	if items == nil {
		items = []T{}
	}
	return tx.Set(c.key, items)
}

// IndexFunc returns the index of the first item matching fn, or -1.
func IndexFunc[T any](items []T, fn func(*T) bool) int {
	for i := range items {
		if fn(&items[i]) {
			return i
		}
	}
	return -1
}

// The five marketplace collections.
var (
	Users         = NewCollection[domain.User](KeyUsers)
	Books         = NewCollection[domain.Book](KeyBooks)
	Exchanges     = NewCollection[domain.Exchange](KeyExchanges)
	Messages      = NewCollection[domain.Message](KeyMessages)
	Conversations = NewCollection[domain.Conversation](KeyConversations)
)
