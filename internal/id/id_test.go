package id

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	// Many IDs within the same millisecond must still be unique.
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	stamp := strconv.FormatInt(fixed.UnixMilli(), 36)

	tests := []struct {
		name   string
		prefix string
	}{
		{"user", "user"},
		{"book", "book"},
		{"exchange", "exch"},
		{"conversation", "conv"},
		{"message", "msg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Generate(tt.prefix)
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, tt.prefix+"-"+stamp), "ID: %s", id)

			suffix := strings.TrimPrefix(id, tt.prefix+"-"+stamp)
			assert.Len(t, suffix, suffixLength)
			for _, char := range suffix {
				assert.True(t, (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9'),
					"Character %c should be base36", char)
			}
		})
	}
}

func TestGenerate_TimeOrdered(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t.Cleanup(func() { now = time.Now })

	now = func() time.Time { return base }
	first, err := Generate("book")
	require.NoError(t, err)
	now = func() time.Time { return base.Add(time.Second) }
	second, err := Generate("book")
	require.NoError(t, err)

	assert.Less(t, first[:len(first)-suffixLength], second[:len(second)-suffixLength])
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("bench")
	}
}
