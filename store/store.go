package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotFound is returned by Get and Delete for unknown keys.
var ErrNotFound = errors.New("store: key not found")

// Store persists opaque blobs by key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// List 返回带 prefix 的 key，按字典序
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-/]*$`)

// ValidateKey rejects keys that cannot be used by every backend, including
// path traversal segments.
func ValidateKey(key string) error {
	if len(key) > 200 {
		return fmt.Errorf("store: key too long (%d > 200)", len(key))
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("store: invalid key %q", key)
	}
	if strings.Contains(key, "..") || strings.Contains(key, "//") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}
