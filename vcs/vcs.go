// Package vcs abstracts version control configuration storage. Currently just
// git, plus an in-memory store for tests and dry runs.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRepository is returned when a local-scope operation is attempted
	// outside of a repository.
	ErrNoRepository = errors.New("vcs: not inside a repository (use --scope=global, or run from a repository)")

	// ErrReadFailed and ErrWriteFailed classify StoreErrors.
	ErrReadFailed  = errors.New("vcs: config read failed")
	ErrWriteFailed = errors.New("vcs: config write failed")
)

// StoreError wraps a backend failure for a single key.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("vcs: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vcs: %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrWriteFailed for set/remove and ErrReadFailed for get/list.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrWriteFailed:
		return e.Op == OpSet || e.Op == OpRemove
	case ErrReadFailed:
		return e.Op == OpGet || e.Op == OpList
	}
	return false
}

const (
	OpGet    = "get"
	OpSet    = "set"
	OpRemove = "remove"
	OpList   = "list"
)

// Entry is a single configuration key and its value.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigStore is a key/value store backed by version control configuration.
// Implementations must satisfy the same contract: Get after Set returns the
// written value, Get after Remove returns nothing, Remove is idempotent, and
// List returns exactly the keys starting with prefix, sorted by key.
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Entry, error)
}

// BoolGetter is implemented by stores that can normalize boolean values
// themselves.
type BoolGetter interface {
	GetBool(ctx context.Context, key string) (bool, bool, error)
}

// GetBool reads key as a git-style boolean.
func GetBool(ctx context.Context, store ConfigStore, key string) (bool, bool, error) {
	if bg, ok := store.(BoolGetter); ok {
		return bg.GetBool(ctx, key)
	}
	s, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}
	b, err := ParseBool(s)
	if err != nil {
		return false, true, &StoreError{Op: OpGet, Key: key, Err: err}
	}
	return b, true, nil
}

// LayeredReader is implemented by stores whose configuration comes in
// layers, such as git's system, global and local files. Get only sees the
// layer the store writes to; Lookup sees the value in effect.
type LayeredReader interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	LookupBool(ctx context.Context, key string) (bool, bool, error)
}

// Lookup reads the value of key in effect, falling back to Get for stores
// without layers.
func Lookup(ctx context.Context, store ConfigStore, key string) (string, bool, error) {
	if lr, ok := store.(LayeredReader); ok {
		return lr.Lookup(ctx, key)
	}
	return store.Get(ctx, key)
}

// LookupBool is Lookup for git-style booleans.
func LookupBool(ctx context.Context, store ConfigStore, key string) (bool, bool, error) {
	if lr, ok := store.(LayeredReader); ok {
		return lr.LookupBool(ctx, key)
	}
	return GetBool(ctx, store, key)
}

// ParseBool parses booleans the way git config does.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", s)
}

// RemovePrefix removes every key starting with prefix.
func RemovePrefix(ctx context.Context, store ConfigStore, prefix string) error {
	entries, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		if err := store.Remove(ctx, e.Key); err != nil {
			return err
		}
	}
	return nil
}
