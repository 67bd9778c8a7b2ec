// Package id generates entity identifiers.
package id

import (
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength   = 8
)

// now is swapped in tests.
var now = time.Now

// Generate creates a prefixed, time-ordered unique ID.
// Format: prefix-<base36 unix millis><8 random base36 chars> (e.g., "book-m2x9k1qz4f7hc0ab").
//
// The timestamp part keeps IDs roughly sortable by creation time; the NanoID
// suffix keeps IDs created within the same millisecond distinct.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + strconv.FormatInt(now().UnixMilli(), 36) + suffix, nil
}
