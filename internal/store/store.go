// Package store is the key-value storage behind the resolvers. Values are
// stored as JSON documents.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hmgdev/hmg-index/internal/config"
)

type Entry struct {
	Key   string
	Value json.RawMessage
}

// Decode unmarshals the entry value into dst.
func (e Entry) Decode(dst any) error {
	return json.Unmarshal(e.Value, dst)
}

type Store interface {
	// Get decodes the value at key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	// ListPrefix returns entries whose key starts with prefix, ordered by key.
	// limit <= 0 means no limit.
	ListPrefix(ctx context.Context, prefix string, limit int) ([]Entry, error)
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StoreEnvConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "badger":
		return NewBadgerStore(cfg.Path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q (expected sqlite, badger or memory)", cfg.Driver)
	}
}

var (
	// RE2's \s is ASCII-only and skips \v, so both are listed with \p{Z}.
	unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9:._\s\v\p{Z}#-]`)
	keyWhitespace  = regexp.MustCompile(`[\s\v\p{Z}]+`)
)

// SafeKeySegment strips characters that are not allowed in storage keys and
// turns each whitespace run into a single hyphen.
func SafeKeySegment(s string) string {
	s = unsafeKeyChars.ReplaceAllString(s, "")
	s = keyWhitespace.ReplaceAllString(s, "-")
	return strings.TrimSpace(s)
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("store: key is required")
	}
	return nil
}
