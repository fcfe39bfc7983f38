// Package kv is a small key-value store with hierarchical keys, used
// for the session catalog. Keys are string slices such as
// Key{"ses", "20250815", "1755225600123456789"} and encode to
// "ses/20250815/1755225600123456789"; lexicographic order of encoded
// keys therefore matches the path hierarchy.
//
// Badger backs the on-disk store; Memory backs tests.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded form. Segments must not
// contain it.
const Separator = "/"

// Key is a hierarchical path of string segments.
type Key []string

func (k Key) String() string {
	return strings.Join(k, Separator)
}

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key, ErrNotFound if absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates the entries under a prefix in lexicographic order
	// of encoded keys. An empty prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchDelete atomically removes multiple keys.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases the store's resources.
	Close() error
}

func encode(k Key) []byte {
	return []byte(strings.Join(k, Separator))
}

func decode(b []byte) Key {
	return strings.Split(string(b), Separator)
}

// listPrefix returns the encoded prefix with a trailing separator, so
// "a/b" does not match "a/bc". Empty prefixes scan everything.
func listPrefix(prefix Key) []byte {
	if len(prefix) == 0 {
		return nil
	}
	return append(encode(prefix), Separator...)
}
