package pagestats

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian/mock"
)

func TestMacros(t *testing.T) {
	t.Parallel()

	conf := &mock.Confluence{Documents: map[string]atlassian.ADFDocument{
		"1": {Type: "doc", Version: 1, Content: []atlassian.ADFNode{
			{Type: "extension"},
			{Type: "paragraph", Content: []atlassian.ADFNode{{Type: "extension"}}},
			{Type: "bodiedExtension"},
			{Type: "extension"},
		}},
		"empty": {},
	}}
	counter := NewCounter(conf, Config{}, nil)

	cases := []struct {
		name string
		id   string
		want int
	}{
		{"top level only", " 1 ", 2},
		{"empty body", "empty", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := counter.Macros(context.Background(), tc.id)
			if err != nil {
				t.Fatalf("Macros() error = %v", err)
			}
			if got.Count != tc.want {
				t.Fatalf("Macros() count = %d, want %d", got.Count, tc.want)
			}
		})
	}
}

func TestMacrosErrors(t *testing.T) {
	t.Parallel()

	counter := NewCounter(&mock.Confluence{}, Config{}, nil)
	if _, err := counter.Macros(context.Background(), "  "); !errors.Is(err, ErrMissingContentID) {
		t.Fatalf("Macros(blank) error = %v", err)
	}
	if _, err := counter.Macros(context.Background(), "404"); err == nil {
		t.Fatalf("expected error for unknown page")
	}
}

func TestFooterCommentsFollowsCursor(t *testing.T) {
	t.Parallel()

	conf := &mock.Confluence{Comments: map[string]map[string]atlassian.CommentPage{
		"9": {
			"": {
				Results: []atlassian.Comment{{ID: "a"}, {ID: "b"}},
				Links:   atlassian.Links{Next: "/wiki/api/v2/pages/9/footer-comments?cursor=c2"},
			},
			"c2": {Results: []atlassian.Comment{{ID: "c"}}},
		},
	}}
	counter := NewCounter(conf, Config{PageSize: 2}, nil)

	got, err := counter.FooterComments(context.Background(), "9")
	if err != nil {
		t.Fatalf("FooterComments() error = %v", err)
	}
	want := CommentCount{ContentID: "9", Count: 3, Message: "Number of comments on this page: 3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FooterComments() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"9@", "9@c2"}, conf.CommentCalls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 2}, conf.Limits); diff != "" {
		t.Fatalf("limits mismatch (-want +got):\n%s", diff)
	}
}

func TestFooterCommentsNoComments(t *testing.T) {
	t.Parallel()

	conf := &mock.Confluence{Comments: map[string]map[string]atlassian.CommentPage{
		"9": {"": {}},
	}}
	got, err := NewCounter(conf, Config{}, nil).FooterComments(context.Background(), "9")
	if err != nil {
		t.Fatalf("FooterComments() error = %v", err)
	}
	if got.Count != 0 || got.Message != "Number of comments on this page: 0" {
		t.Fatalf("FooterComments() = %+v", got)
	}
}

func TestFooterCommentsTruncated(t *testing.T) {
	t.Parallel()

	conf := &mock.Confluence{Comments: map[string]map[string]atlassian.CommentPage{
		"9": {
			"": {
				Results: []atlassian.Comment{{ID: "a"}},
				Links:   atlassian.Links{Next: "/wiki/api/v2/pages/9/footer-comments?cursor=c2"},
			},
			"c2": {
				Results: []atlassian.Comment{{ID: "b"}},
				Links:   atlassian.Links{Next: "/wiki/api/v2/pages/9/footer-comments?cursor=c3"},
			},
		},
	}}
	got, err := NewCounter(conf, Config{MaxIterations: 1}, nil).FooterComments(context.Background(), "9")
	if err != nil {
		t.Fatalf("FooterComments() error = %v", err)
	}
	if got.Count != 1 || !got.Truncated {
		t.Fatalf("FooterComments() = %+v, want one comment and truncated", got)
	}
}

func TestFooterCommentsUpstreamError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := NewCounter(&mock.Confluence{Err: boom}, Config{}, nil).FooterComments(context.Background(), "9")
	if !errors.Is(err, boom) {
		t.Fatalf("FooterComments() error = %v, want wrapped boom", err)
	}
}
