package glossary

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmgdev/hmg-index/internal/store"
)

func TestDefinitionsPreserveOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := New(store.NewMemoryStore())
	if err := g.Save(ctx, "Forge App", "A cloud app"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := g.Save(ctx, "KVS", "Key value storage"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := g.Definitions(ctx, []string{"KVS", "unknown", "Forge App"})
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	want := []string{"Key value storage", "", "A cloud app"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("definitions mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveDefinition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	g := New(s)
	if err := g.Save(ctx, "term one", "x"); err != nil {
		t.Fatalf("save: %v", err)
	}
	var e Entry
	if ok, _ := s.Get(ctx, "term-term-one", &e); !ok {
		t.Fatalf("expected value under sanitized key")
	}
	if err := g.Remove(ctx, "term one"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := g.Definitions(ctx, []string{"term one"})
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	if got[0] != "" {
		t.Fatalf("expected removed definition, got %q", got[0])
	}
}

func TestSaveRequiresTerm(t *testing.T) {
	t.Parallel()

	if err := New(store.NewMemoryStore()).Save(context.Background(), "  ", "x"); err == nil {
		t.Fatalf("expected error for blank term")
	}
}
