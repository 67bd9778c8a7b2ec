// Package stream provides JSONL streaming to and from zip archives.
package stream

import (
	"archive/zip"
	"encoding/json"
	"fmt"
)

// Writer streams records as JSONL into one file of a zip archive.
type Writer struct {
	enc   *json.Encoder
	count int
}

// NewWriter creates the file at path within zw and returns a writer for it.
// The writer is valid until the next file is created in zw.
func NewWriter(zw *zip.Writer, path string) (*Writer, error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &Writer{enc: json.NewEncoder(w)}, nil
}

// Write encodes v as a single line.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns records written so far.
func (w *Writer) Count() int {
	return w.count
}

// WriteAll writes every item of items to path within zw and returns the count.
func WriteAll[T any](zw *zip.Writer, path string, items []T) (int, error) {
	w, err := NewWriter(zw, path)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := w.Write(&items[i]); err != nil {
			return w.Count(), fmt.Errorf("write %s record %d: %w", path, i, err)
		}
	}
	return w.Count(), nil
}
