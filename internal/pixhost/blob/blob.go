// Package blob stores image bytes keyed by an opaque guid. Metadata lives
// in the relational store; a blob is only ever addressed by its key.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

var (
	ErrNotFound   = errors.New("blob: not found")
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Store is implemented by every blob driver.
type Store interface {
	// Put writes size bytes from r under key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error

	// Get opens the object. The caller must close Object.Body.
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns an address a browser can fetch the object from.
	URL(ctx context.Context, key string) (string, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Object is an open blob.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateKey rejects keys that could escape a directory or bucket prefix.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
