package stream

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ErrFileNotFound indicates a file was not found in the archive.
var ErrFileNotFound = errors.New("file not found in backup")

// OpenFile finds and opens a file from a zip archive.
func OpenFile(zr *zip.Reader, path string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == path {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
}

// Reader streams records of type T from a JSONL file.
type Reader[T any] struct {
	rc  io.ReadCloser
	dec *json.Decoder
}

// NewReader creates a streaming reader for type T. The reader closes rc
// once iteration ends.
func NewReader[T any](rc io.ReadCloser) *Reader[T] {
	return &Reader[T]{rc: rc, dec: json.NewDecoder(rc)}
}

// All returns an iterator over the records in the file. A decode error is
// yielded once and ends the iteration, since the stream position is lost.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer r.rc.Close()

		for {
			var v T
			err := r.dec.Decode(&v)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// ReadAll loads every record of path within zr.
func ReadAll[T any](zr *zip.Reader, path string) ([]T, error) {
	rc, err := OpenFile(zr, path)
	if err != nil {
		return nil, err
	}

	items := []T{}
	for v, err := range NewReader[T](rc).All() {
		if err != nil {
			return nil, fmt.Errorf("read %s record %d: %w", path, len(items), err)
		}
		items = append(items, v)
	}
	return items, nil
}
