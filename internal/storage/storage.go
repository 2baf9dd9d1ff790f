// Package storage provides the record backends the job store and archive index persist through
package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotExist is returned by Get when no record is stored under the key
	ErrNotExist = errors.New("record does not exist")
	// ErrInvalidKey is returned for keys that cannot address a record safely
	ErrInvalidKey = errors.New("invalid record key")
)

// Record is one stored unit
type Record struct {
	Key  string
	Data []byte
}

// Backend stores opaque records addressed by key.
//
// Put must replace a record atomically: readers see either the old or the
// new value, never a partial write. Delete of a missing key is not an error.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Delete(key string) error
	List() ([]Record, error)
}

// ValidateKey rejects keys that are empty or could escape a storage directory
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	case strings.HasPrefix(key, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidKey, key)
	}
	return nil
}
