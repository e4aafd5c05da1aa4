package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hmgdev/hmg-index/internal/config"
)

type record struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "kv.db"))
	if err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	badger, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("failed to init badger store: %v", err)
	}
	out := map[string]Store{
		"sqlite": sqlite,
		"badger": badger,
		"memory": NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var got record
			ok, err := s.Get(ctx, "missing", &got)
			if err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := s.Set(ctx, "a", record{Title: "one", Count: 1}); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if err := s.Set(ctx, "a", record{Title: "two", Count: 2}); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			ok, err = s.Get(ctx, "a", &got)
			if err != nil || !ok {
				t.Fatalf("expected key, got ok=%v err=%v", ok, err)
			}
			if got.Title != "two" || got.Count != 2 {
				t.Fatalf("unexpected value: %+v", got)
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("second delete failed: %v", err)
			}
			ok, err = s.Get(ctx, "a", &got)
			if err != nil || ok {
				t.Fatalf("expected deleted key, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreListPrefix(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, k := range []string{"article:b", "article:a", "ARTICLE:x", "article_c", "term-x", "article:c"} {
				if err := s.Set(ctx, k, record{Title: k}); err != nil {
					t.Fatalf("set %s: %v", k, err)
				}
			}

			entries, err := s.ListPrefix(ctx, "article:", 0)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			var keys []string
			for _, e := range entries {
				keys = append(keys, e.Key)
			}
			want := []string{"article:a", "article:b", "article:c"}
			if len(keys) != len(want) {
				t.Fatalf("expected %v, got %v", want, keys)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Fatalf("expected %v, got %v", want, keys)
				}
			}

			var r record
			if err := entries[0].Decode(&r); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if r.Title != "article:a" {
				t.Fatalf("unexpected decoded value: %+v", r)
			}

			limited, err := s.ListPrefix(ctx, "article:", 2)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(limited) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(limited))
			}
		})
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Set(context.Background(), "", 1); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	s, err := Open(config.StoreEnvConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	_ = s.Close()

	if _, err := Open(config.StoreEnvConfig{Driver: "redis"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestSafeKeySegment(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Hello World":       "Hello-World",
		"a/b?c":             "abc",
		"  spaced  out ":    "-spaced-out-",
		"keep:._#-":         "keep:._#-",
		"tab\tand\nnewline": "tab-and-newline",
		"한글 제목":             "-",
		"foo\u00a0bar\vbaz": "foo-bar-baz",
		"em\u2003space":     "em-space",
	}
	for in, want := range cases {
		if got := SafeKeySegment(in); got != want {
			t.Errorf("SafeKeySegment(%q) = %q, want %q", in, got, want)
		}
	}
}
