package backup

import "time"

// FormatVersion is the backup format version. Increment on breaking changes.
const FormatVersion = "1.0"

// Archive layout.
const (
	manifestPath      = "manifest.json"
	usersPath         = "entities/users.jsonl"
	booksPath         = "entities/books.jsonl"
	exchangesPath     = "entities/exchanges.jsonl"
	messagesPath      = "entities/messages.jsonl"
	conversationsPath = "entities/conversations.jsonl"

	// fileSuffix marks backup archives in the backup directory.
	fileSuffix = ".bookexchange.zip"
)

// Manifest describes backup contents. It is written last so its counts are final.
type Manifest struct {
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Counts    EntityCounts `json:"counts"`
}

// EntityCounts tracks record counts per collection.
type EntityCounts struct {
	Users         int `json:"users"`
	Books         int `json:"books"`
	Exchanges     int `json:"exchanges"`
	Messages      int `json:"messages"`
	Conversations int `json:"conversations"`
}
