// Package glossary stores term definitions in the key-value store.
package glossary

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hmgdev/hmg-index/internal/store"
)

const maxConcurrentLookups = 8

// Entry is the stored value for one term.
type Entry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type Glossary struct {
	store store.Store
}

func New(s store.Store) *Glossary {
	return &Glossary{store: s}
}

// TermKey returns the storage key for term.
func TermKey(term string) string {
	return "term-" + store.SafeKeySegment(term)
}

// Definitions looks up every term concurrently. The result has the same
// order as terms; unknown terms map to "".
func (g *Glossary) Definitions(ctx context.Context, terms []string) ([]string, error) {
	out := make([]string, len(terms))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentLookups)
	for i, term := range terms {
		eg.Go(func() error {
			var e Entry
			ok, err := g.store.Get(ctx, TermKey(term), &e)
			if err != nil {
				return fmt.Errorf("lookup %q: %w", term, err)
			}
			if ok {
				out[i] = e.Definition
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Glossary) Save(ctx context.Context, term, definition string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("term is required")
	}
	return g.store.Set(ctx, TermKey(term), Entry{Term: term, Definition: definition})
}

func (g *Glossary) Remove(ctx context.Context, term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("term is required")
	}
	return g.store.Delete(ctx, TermKey(term))
}
