// Package articles is the board of user-authored articles.
package articles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hmgdev/hmg-index/internal/store"
)

const (
	keyPrefix = "article:"
	listLimit = 100
)

type Article struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	AccountID string `json:"accountId"`
}

func (a Article) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("article id is required")
	}
	if strings.TrimSpace(a.AccountID) == "" {
		return fmt.Errorf("article accountId is required")
	}
	return nil
}

// Key is article:<accountId>:<title>:<id> with the title made key-safe.
func Key(a Article) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, a.AccountID, store.SafeKeySegment(a.Title), a.ID)
}

type Board struct {
	store store.Store
}

func New(s store.Store) *Board {
	return &Board{store: s}
}

// FindAll returns up to 100 articles in key order.
func (b *Board) FindAll(ctx context.Context) ([]Article, error) {
	entries, err := b.store.ListPrefix(ctx, keyPrefix, listLimit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	out := make([]Article, 0, len(entries))
	for _, e := range entries {
		var a Article
		if err := e.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode %q: %w", e.Key, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Save stores a, assigning a new id when it has none.
func (b *Board) Save(ctx context.Context, a Article) (Article, error) {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return Article{}, err
	}
	if err := b.store.Set(ctx, Key(a), a); err != nil {
		return Article{}, fmt.Errorf("save article: %w", err)
	}
	return a, nil
}

func (b *Board) Delete(ctx context.Context, a Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return b.store.Delete(ctx, Key(a))
}
