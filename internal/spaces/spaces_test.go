package spaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian/mock"
	"github.com/hmgdev/hmg-index/internal/upstream"
)

func names(spaces []atlassian.Space) []string {
	out := make([]string, 0, len(spaces))
	for _, s := range spaces {
		out = append(out, s.Name)
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestFilter(t *testing.T) {
	t.Parallel()

	records := []atlassian.Space{
		{Key: "ALP", Name: "Alpha"},
		{Key: "BET", Name: "beta"},
		{Key: "ENG", Name: "Engineering Alps"},
	}
	cases := []struct {
		name  string
		in    []atlassian.Space
		query string
		want  []string
	}{
		{"empty input", nil, "x", []string{}},
		{"blank query is identity", records, "  ", []string{"Alpha", "beta", "Engineering Alps"}},
		{"case-insensitive name match keeps order", records, "AL", []string{"Alpha", "Engineering Alps"}},
		{"matches key", records, "bet", []string{"beta"}},
		{"trims query", records, "  eng ", []string{"Engineering Alps"}},
		{"no match", records, "zzz", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := names(Filter(tc.in, tc.query))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_EmptyQueryReturnsSameSlice(t *testing.T) {
	t.Parallel()

	records := []atlassian.Space{{Name: "b"}, {Name: "a"}}
	got := Filter(records, "")
	if &got[0] != &records[0] || len(got) != 2 {
		t.Fatalf("expected identity for empty query")
	}
}

func TestProject_MissingFieldsBecomeNull(t *testing.T) {
	t.Parallel()

	out := Project([]atlassian.Space{{ID: "1", Key: "K", Name: "N", AuthorID: "dropped"}})
	raw, err := json.Marshal(out[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"1","key":"K","name":"N","description":null,"type":null,"status":null,"_links":null}`
	if string(raw) != want {
		t.Fatalf("Project() json = %s, want %s", raw, want)
	}
}

func twoPageConfluence() *mock.Confluence {
	return &mock.Confluence{SpacePages: map[string]atlassian.SpacePage{
		"": {
			Results: []atlassian.Space{
				{ID: "1", Key: "A", Name: "Apple", Status: "current"},
				{ID: "2", Key: "B", Name: "Banana", Status: "current"},
			},
			Links: atlassian.Links{Next: "/wiki/api/v2/spaces?limit=100&cursor=c1"},
		},
		"c1": {
			Results: []atlassian.Space{{ID: "3", Key: "C", Name: "Cherry", Status: "archived"}},
		},
	}}
}

func TestSearcher_EndToEnd(t *testing.T) {
	t.Parallel()

	confluence := twoPageConfluence()
	searcher := NewSearcher(confluence, Config{}, nil)

	resp := searcher.Search(context.Background(), SearchRequest{Query: strPtr("B")})
	if !resp.Success {
		t.Fatalf("Search() failed: %+v", resp)
	}
	if diff := cmp.Diff([]string{"", "c1"}, confluence.SpaceCalls); diff != "" {
		t.Fatalf("cursor sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{100, 100}, confluence.Limits); diff != "" {
		t.Fatalf("page size mismatch (-want +got):\n%s", diff)
	}
	if len(resp.Spaces) != 1 || resp.Spaces[0].Key != "B" {
		t.Fatalf("spaces = %+v, want only B", resp.Spaces)
	}
	if resp.TotalCount != 1 || resp.OriginalCount != 3 {
		t.Fatalf("TotalCount = %d, OriginalCount = %d", resp.TotalCount, resp.OriginalCount)
	}
	if !resp.HasFiltered || resp.SearchTerm == nil || *resp.SearchTerm != "B" {
		t.Fatalf("HasFiltered = %v, SearchTerm = %v", resp.HasFiltered, resp.SearchTerm)
	}
}

func TestSearcher_NoQueryReturnsEverything(t *testing.T) {
	t.Parallel()

	resp := NewSearcher(twoPageConfluence(), Config{}, nil).Search(context.Background(), SearchRequest{Query: strPtr("   ")})
	if !resp.Success || resp.TotalCount != 3 || resp.OriginalCount != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.HasFiltered || resp.SearchTerm != nil {
		t.Fatalf("blank query must not count as filtering: %+v", resp)
	}
}

func TestSearcher_IterationBudget(t *testing.T) {
	t.Parallel()

	confluence := &mock.Confluence{SpacePages: map[string]atlassian.SpacePage{
		"":  {Results: []atlassian.Space{{Key: "1"}}, Links: atlassian.Links{Next: "/x?cursor=a"}},
		"a": {Results: []atlassian.Space{{Key: "2"}}, Links: atlassian.Links{Next: "/x?cursor=b"}},
		"b": {Results: []atlassian.Space{{Key: "3"}}, Links: atlassian.Links{Next: "/x?cursor=c"}},
		"c": {Results: []atlassian.Space{{Key: "4"}}},
	}}
	resp := NewSearcher(confluence, Config{MaxIterations: 2, PageSize: 1}, nil).Search(context.Background(), SearchRequest{})
	if !resp.Success || !resp.Truncated || resp.OriginalCount != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(confluence.SpaceCalls) != 2 {
		t.Fatalf("fetches = %d, want 2", len(confluence.SpaceCalls))
	}
}

func TestSearcher_UpstreamErrorIsStructured(t *testing.T) {
	t.Parallel()

	confluence := &mock.Confluence{Err: &upstream.HTTPError{
		Service:    "confluence",
		StatusCode: http.StatusForbidden,
		Status:     "403 Forbidden",
		Body:       `{"message":"no access"}`,
	}}
	resp := NewSearcher(confluence, Config{}, nil).Search(context.Background(), SearchRequest{})
	if resp.Success {
		t.Fatalf("expected failure")
	}
	if resp.HTTPStatus != http.StatusForbidden || resp.Details != `{"message":"no access"}` {
		t.Fatalf("unexpected failure: %+v", resp)
	}
	if !strings.Contains(resp.Message, "403 Forbidden") {
		t.Fatalf("Message = %q", resp.Message)
	}
	if resp.Spaces == nil || len(resp.Spaces) != 0 {
		t.Fatalf("expected empty spaces on failure")
	}
}

func TestSearcher_TransportError(t *testing.T) {
	t.Parallel()

	resp := NewSearcher(&mock.Confluence{Err: errors.New("dial tcp: refused")}, Config{}, nil).
		Search(context.Background(), SearchRequest{})
	if resp.Success || resp.HTTPStatus != 0 || !strings.Contains(resp.Message, "refused") {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
