package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hmgdev/hmg-index/internal/alert"
	"github.com/hmgdev/hmg-index/internal/articles"
	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/organization"
	"github.com/hmgdev/hmg-index/internal/pagestats"
	"github.com/hmgdev/hmg-index/internal/resolver"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian/mock"
	"github.com/hmgdev/hmg-index/internal/sources/external"
	externalmock "github.com/hmgdev/hmg-index/internal/sources/external/mock"
	"github.com/hmgdev/hmg-index/internal/spaces"
	"github.com/hmgdev/hmg-index/internal/store"
)

type fixture struct {
	app        *App
	confluence *mock.Confluence
	jira       *mock.Jira
	users      *externalmock.Client
}

func newFixture(t *testing.T, doc *config.Document) fixture {
	t.Helper()
	f := fixture{
		confluence: &mock.Confluence{
			SpacePages: map[string]atlassian.SpacePage{
				"": {Results: []atlassian.Space{
					{ID: "1", Key: "ALP", Name: "Alpha"},
					{ID: "2", Key: "BET", Name: "Beta"},
				}},
			},
			Documents: map[string]atlassian.ADFDocument{
				"42": {Type: "doc", Content: []atlassian.ADFNode{{Type: "extension"}, {Type: "paragraph"}}},
			},
			Comments: map[string]map[string]atlassian.CommentPage{
				"42": {"": {Results: []atlassian.Comment{{ID: "c1"}, {ID: "c2"}}}},
			},
			User: atlassian.User{AccountID: "acc-1", DisplayName: "Kim"},
		},
		jira: &mock.Jira{},
		users: &externalmock.Client{
			UserList: []external.User{{ID: 1, Name: "Leanne Graham", Email: "Sincere@april.biz"}},
			Quote:    external.Quote{Text: "Stay hungry", Author: "Jobs"},
		},
	}
	a, err := New(Deps{
		Document:   doc,
		Store:      store.NewMemoryStore(),
		Confluence: f.confluence,
		Jira:       f.jira,
		Users:      f.users,
		Quotes:     f.users,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	f.app = a
	return f
}

func invoke(t *testing.T, a *App, name, payload string) any {
	t.Helper()
	out, err := a.Registry.Invoke(context.Background(), name, json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Invoke(%s) error: %v", name, err)
	}
	return out
}

func TestRegistersEveryResolver(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	want := []string{
		"addKeywordsToLabels", "addOrganizationItem", "callOpenAI", "countFooterComments",
		"countMacros", "createServiceDeskRequest", "deleteArticle", "deleteOrganizationItem", "extractKeywords", "findAllArticles",
		"findCurrentUser", "getContent", "getDefinitions", "getExternalOrganizationData",
		"getNoticeDetail", "getNotices", "getOrganizationData", "getQuote", "getText",
		"globalSettingsResolver", "jsonplaceholder", "jsonplaceholderpost", "removeDefinition",
		"saveArticle", "saveDefinition", "saveOrganizationData", "searchSpaces",
		"updateOrganizationItem", "validateAssignee",
	}
	if diff := cmp.Diff(want, f.app.Registry.Names()); diff != "" {
		t.Fatalf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestPageStatsResolvers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	macros := invoke(t, f.app, "countMacros", `{"contentId":"42"}`).(pagestats.MacroCount)
	if macros.Count != 1 {
		t.Fatalf("countMacros = %+v", macros)
	}
	comments := invoke(t, f.app, "countFooterComments", `{"contentId":"42"}`).(pagestats.CommentCount)
	if comments.Count != 2 || comments.Message != "Number of comments on this page: 2" {
		t.Fatalf("countFooterComments = %+v", comments)
	}

	_, err := f.app.Registry.Invoke(context.Background(), "countMacros", json.RawMessage(`{}`))
	var payloadErr *resolver.PayloadError
	if !errors.As(err, &payloadErr) {
		t.Fatalf("countMacros({}) error = %v, want PayloadError", err)
	}
}

func TestSearchSpaces(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := invoke(t, f.app, "searchSpaces", `{"query":" AL "}`).(spaces.SearchResponse)
	if !resp.Success || resp.TotalCount != 1 || resp.OriginalCount != 2 || !resp.HasFiltered {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.SearchTerm == nil || *resp.SearchTerm != "AL" {
		t.Fatalf("searchTerm = %v, want AL", resp.SearchTerm)
	}
}

func TestGreetingAndSettings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if got := invoke(t, f.app, "getText", ""); got != "HMG Index Data Loaded Successfully!" {
		t.Fatalf("getText = %q", got)
	}
	settings := invoke(t, f.app, "globalSettingsResolver", "{}").(SettingsResponse)
	if settings.Message != "HMG Index Settings loaded successfully" || settings.Version != "1.1.10" {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if _, err := time.Parse(time.RFC3339Nano, settings.Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", settings.Timestamp, err)
	}
}

func TestOrganizationResolvers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	got := invoke(t, f.app, "getOrganizationData", "").(DataResponse[[]organization.Item])
	if len(got.Data) != 3 {
		t.Fatalf("expected 3 default rows, got %d", len(got.Data))
	}

	added := invoke(t, f.app, "addOrganizationItem", `{"newItem":{"category":"조직","chonggwal":"(C) 신규"}}`).(DataResponse[[]organization.Item])
	if len(added.Data) != 4 || added.Data[3].ID != 4 {
		t.Fatalf("unexpected rows after add: %+v", added.Data)
	}

	updated := invoke(t, f.app, "updateOrganizationItem", `{"id":4,"updatedItem":{"group":"42dot"}}`).(DataResponse[[]organization.Item])
	if updated.Data[3].Group != "42dot" || updated.Data[3].Chonggwal != "(C) 신규" {
		t.Fatalf("unexpected row after update: %+v", updated.Data[3])
	}

	deleted := invoke(t, f.app, "deleteOrganizationItem", `{"id":1}`).(DataResponse[[]organization.Item])
	if len(deleted.Data) != 3 || deleted.Data[0].ID != 2 {
		t.Fatalf("unexpected rows after delete: %+v", deleted.Data)
	}

	imported := invoke(t, f.app, "getExternalOrganizationData", "").(ExternalOrganizationResponse)
	if imported.DataCount != 1 || imported.Source != "JSONPlaceholder API" {
		t.Fatalf("unexpected import %+v", imported)
	}
}

func TestSaveOrganizationRejectsMissingData(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.app.Registry.Invoke(context.Background(), "saveOrganizationData", json.RawMessage(`{}`))
	var payloadErr *resolver.PayloadError
	if !errors.As(err, &payloadErr) {
		t.Fatalf("expected PayloadError, got %v", err)
	}
}

func TestNoticeResolvers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	list := invoke(t, f.app, "getNotices", `{"category":"report","limit":1}`).(NoticesResponse)
	if list.TotalCount != 1 || list.Notices[0].ID != 1 {
		t.Fatalf("unexpected notices %+v", list)
	}
	if list.Filters.Priority != nil || list.Filters.Limit == nil || *list.Filters.Limit != 1 {
		t.Fatalf("unexpected filters %+v", list.Filters)
	}

	missing := invoke(t, f.app, "getNoticeDetail", `{"id":99}`).(NoticeDetailResponse)
	if missing.Success || missing.Notice != nil {
		t.Fatalf("expected not found, got %+v", missing)
	}
	found := invoke(t, f.app, "getNoticeDetail", `{"id":4}`).(NoticeDetailResponse)
	if !found.Success || found.Notice.Summary != "Global IT Forum 2025" {
		t.Fatalf("unexpected detail %+v", found)
	}
}

func TestGlossaryAndArticles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	invoke(t, f.app, "saveDefinition", `{"term":"Forge","definition":"app platform"}`)
	defs := invoke(t, f.app, "getDefinitions", `{"terms":["Forge","unknown"]}`).([]string)
	if diff := cmp.Diff([]string{"app platform", ""}, defs); diff != "" {
		t.Fatalf("definitions mismatch (-want +got):\n%s", diff)
	}
	invoke(t, f.app, "removeDefinition", `{"term":"Forge"}`)
	defs = invoke(t, f.app, "getDefinitions", `{"terms":["Forge"]}`).([]string)
	if defs[0] != "" {
		t.Fatalf("expected removed definition, got %q", defs[0])
	}

	saved := invoke(t, f.app, "saveArticle", `{"title":"Hello world","content":"hi","accountId":"acc-1"}`).(articles.Article)
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	all := invoke(t, f.app, "findAllArticles", "").([]articles.Article)
	if len(all) != 1 || all[0].Title != "Hello world" {
		t.Fatalf("unexpected articles %+v", all)
	}
	payload, _ := json.Marshal(map[string]any{"article": saved})
	invoke(t, f.app, "deleteArticle", string(payload))
	if all := invoke(t, f.app, "findAllArticles", "").([]articles.Article); len(all) != 0 {
		t.Fatalf("expected no articles, got %+v", all)
	}
}

func TestKeywordLabelsAcceptEncodedString(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	labels := invoke(t, f.app, "addKeywordsToLabels", `{"contentId":"42","keywords":"[\"cloud platform\",\"forge\"]"}`).([]atlassian.Label)
	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %+v", labels)
	}
	if diff := cmp.Diff([]string{"cloud-platform", "forge"}, f.confluence.Labels["42"]); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywordList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    KeywordList
		wantErr bool
	}{
		{name: "array", in: `["a","b"]`, want: KeywordList{"a", "b"}},
		{name: "encoded array", in: `"[\"a\"]"`, want: KeywordList{"a"}},
		{name: "blank string", in: `""`, want: nil},
		{name: "number", in: `7`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got KeywordList
			err := json.Unmarshal([]byte(tc.in), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExternalResolvers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if got := invoke(t, f.app, "jsonplaceholderpost", `{"title":"t1","body":"b1"}`); got != "t1" {
		t.Fatalf("jsonplaceholderpost = %v, want t1", got)
	}
	if got := invoke(t, f.app, "getQuote", ""); got != "Stay hungry" {
		t.Fatalf("getQuote = %v", got)
	}
	users := invoke(t, f.app, "jsonplaceholder", "").([]external.User)
	if len(users) != 1 {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestLLMResolversWithoutKey(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.app.Registry.Invoke(context.Background(), "callOpenAI", json.RawMessage(`{"prompt":"hi"}`))
	if err == nil {
		t.Fatalf("expected not configured error")
	}
}

func TestUnconfiguredAtlassian(t *testing.T) {
	t.Parallel()

	a, err := New(Deps{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, err = a.Registry.Invoke(context.Background(), "findCurrentUser", nil)
	if !errors.Is(err, ErrAtlassianNotConfigured) {
		t.Fatalf("expected ErrAtlassianNotConfigured, got %v", err)
	}
	_, err = a.Registry.Invoke(context.Background(), "countFooterComments", json.RawMessage(`{"contentId":"1"}`))
	if !errors.Is(err, ErrAtlassianNotConfigured) {
		t.Fatalf("countFooterComments: expected ErrAtlassianNotConfigured, got %v", err)
	}
	resp, err := a.Registry.Invoke(context.Background(), "searchSpaces", nil)
	if err != nil {
		t.Fatalf("searchSpaces error: %v", err)
	}
	if resp.(spaces.SearchResponse).Success {
		t.Fatalf("expected failed search")
	}
}

func TestOnIssueCreated(t *testing.T) {
	t.Parallel()

	doc := config.DefaultDocument()
	doc.Workflow.CreateComment = "Thanks, we are on it."
	f := newFixture(t, doc)

	got, err := f.app.OnIssueCreated(context.Background(), atlassian.Issue{
		Key:    "SUP-1",
		Fields: atlassian.IssueFields{Status: &atlassian.IssueStatus{Name: "To Do"}},
	})
	if err != nil {
		t.Fatalf("OnIssueCreated() error: %v", err)
	}
	if !got.AlertPublished || !got.Commented {
		t.Fatalf("unexpected result %+v", got)
	}
	select {
	case ev := <-f.app.Queue:
		if ev.Key != alert.EventKey || ev.IssueKey != "SUP-1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("expected queued event")
	}
	if diff := cmp.Diff([]string{"Thanks, we are on it."}, f.jira.Comments["SUP-1"]); diff != "" {
		t.Fatalf("comments mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.app.OnIssueCreated(context.Background(), atlassian.Issue{}); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	_, err := New(Deps{
		Store: store.NewMemoryStore(),
		Env:   config.EnvConfig{Alert: config.AlertEnvConfig{Schedule: "every now and then"}},
	})
	if err == nil {
		t.Fatalf("expected schedule error")
	}
}
