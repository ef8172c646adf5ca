// Package storage keeps uploaded listing photos, on disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// Object is an opened stored file. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open returns domain.ErrNotFound for a missing key.
	Open(ctx context.Context, key string) (*Object, error)
	// Delete of a missing key is not an error.
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

var ErrBadKey = errors.New("invalid storage key")

// CleanKey normalises a slash separated key and rejects anything that could
// escape the store root.
func CleanKey(key string) (string, error) {
	lower := strings.ToLower(key)
	if key == "" || strings.Contains(key, "..") || strings.Contains(lower, "%2e") ||
		strings.ContainsAny(key, "\\\x00") || strings.HasPrefix(key, "/") {
		return "", ErrBadKey
	}
	clean := path.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "/") {
		return "", ErrBadKey
	}
	return clean, nil
}
