package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmgdev/hmg-index/internal/articles"
	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/glossary"
	"github.com/hmgdev/hmg-index/internal/keywords"
	"github.com/hmgdev/hmg-index/internal/notices"
	"github.com/hmgdev/hmg-index/internal/organization"
	"github.com/hmgdev/hmg-index/internal/pagestats"
	"github.com/hmgdev/hmg-index/internal/resolver"
	"github.com/hmgdev/hmg-index/internal/servicedesk"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/sources/external"
	"github.com/hmgdev/hmg-index/internal/spaces"
	"github.com/hmgdev/hmg-index/internal/workflow"
)

// DataResponse is the envelope shared by the organization resolvers.
type DataResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type SettingsResponse struct {
	Message   string `json:"message"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type ExternalOrganizationResponse struct {
	Success   bool                `json:"success"`
	Data      []organization.Item `json:"data"`
	Source    string              `json:"source"`
	Message   string              `json:"message"`
	Timestamp string              `json:"timestamp"`
	DataCount int                 `json:"dataCount"`
}

type NoticesResponse struct {
	Success    bool             `json:"success"`
	Notices    []notices.Notice `json:"notices"`
	TotalCount int              `json:"totalCount"`
	Filters    notices.Filters  `json:"filters"`
}

type NoticeDetailResponse struct {
	Success bool            `json:"success"`
	Notice  *notices.Notice `json:"notice"`
	Message string          `json:"message,omitempty"`
}

type empty struct{}

type saveOrganizationRequest struct {
	Data []organization.Item `json:"data"`
}

func (r saveOrganizationRequest) Validate() error {
	if r.Data == nil {
		return errors.New("data must be a list")
	}
	return nil
}

type updateOrganizationRequest struct {
	ID          int                `json:"id"`
	UpdatedItem organization.Patch `json:"updatedItem"`
}

type addOrganizationRequest struct {
	NewItem organization.Item `json:"newItem"`
}

type idRequest struct {
	ID int `json:"id"`
}

func (r idRequest) Validate() error {
	if r.ID <= 0 {
		return errors.New("id is required")
	}
	return nil
}

type definitionsRequest struct {
	Terms []string `json:"terms"`
}

type definitionRequest struct {
	Term       string `json:"term"`
	Definition string `json:"definition,omitempty"`
}

func (r definitionRequest) Validate() error {
	if strings.TrimSpace(r.Term) == "" {
		return errors.New("term is required")
	}
	return nil
}

// saveArticleRequest may omit the id; Save assigns one.
type saveArticleRequest articles.Article

func (r saveArticleRequest) Validate() error {
	if strings.TrimSpace(r.AccountID) == "" {
		return errors.New("article accountId is required")
	}
	return nil
}

type deleteArticleRequest struct {
	Article articles.Article `json:"article"`
}

func (r deleteArticleRequest) Validate() error { return r.Article.Validate() }

type contentRequest struct {
	ContentID string `json:"contentId"`
}

func (r contentRequest) Validate() error {
	if strings.TrimSpace(r.ContentID) == "" {
		return errors.New("contentId is required")
	}
	return nil
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type labelsRequest struct {
	ContentID string      `json:"contentId"`
	Keywords  KeywordList `json:"keywords"`
}

func (r labelsRequest) Validate() error {
	if strings.TrimSpace(r.ContentID) == "" {
		return errors.New("contentId is required")
	}
	if len(r.Keywords) == 0 {
		return errors.New("keywords are required")
	}
	return nil
}

// KeywordList accepts a JSON array of strings, or a string holding one
// (as produced by JSON.stringify on the client).
type KeywordList []string

func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("keywords must be a list of strings")
	}
	if strings.TrimSpace(encoded) == "" {
		*k = nil
		return nil
	}
	list, err := keywords.ParseKeywords(encoded)
	if err != nil {
		return fmt.Errorf("keywords: %w", err)
	}
	*k = list
	return nil
}

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type issueKeyRequest struct {
	IssueKey string `json:"issueKey"`
}

func (r issueKeyRequest) Validate() error {
	if strings.TrimSpace(r.IssueKey) == "" {
		return errors.New("issueKey is required")
	}
	return nil
}

type resolvers struct {
	info       config.AppInfo
	search     *spaces.Searcher
	org        *organization.Directory
	notices    *notices.Board
	desk       *servicedesk.Service
	glossary   *glossary.Glossary
	articles   *articles.Board
	keywords   *keywords.Service
	pagestats  *pagestats.Counter
	confluence atlassian.Confluence
	users      external.Placeholder
	quotes     external.Quotes
	workflow   *workflow.Hooks
	now        func() time.Time
}

func (r *resolvers) register(reg *resolver.Registry) {
	if r.now == nil {
		r.now = time.Now
	}

	reg.Define("getText", resolver.Typed("getText", r.getText))
	reg.Define("globalSettingsResolver", resolver.Typed("globalSettingsResolver", r.globalSettings))

	reg.Define("searchSpaces", resolver.Typed("searchSpaces", func(ctx context.Context, req spaces.SearchRequest) (spaces.SearchResponse, error) {
		return r.search.Search(ctx, req), nil
	}))

	reg.Define("getOrganizationData", resolver.Typed("getOrganizationData", r.getOrganization))
	reg.Define("saveOrganizationData", resolver.Typed("saveOrganizationData", r.saveOrganization))
	reg.Define("updateOrganizationItem", resolver.Typed("updateOrganizationItem", r.updateOrganizationItem))
	reg.Define("addOrganizationItem", resolver.Typed("addOrganizationItem", r.addOrganizationItem))
	reg.Define("deleteOrganizationItem", resolver.Typed("deleteOrganizationItem", r.deleteOrganizationItem))
	reg.Define("getExternalOrganizationData", resolver.Typed("getExternalOrganizationData", r.externalOrganization))

	reg.Define("getNotices", resolver.Typed("getNotices", r.getNotices))
	reg.Define("getNoticeDetail", resolver.Typed("getNoticeDetail", r.getNoticeDetail))

	reg.Define("createServiceDeskRequest", resolver.Typed("createServiceDeskRequest", r.desk.Create))

	reg.Define("getDefinitions", resolver.Typed("getDefinitions", func(ctx context.Context, req definitionsRequest) ([]string, error) {
		return r.glossary.Definitions(ctx, req.Terms)
	}))
	reg.Define("saveDefinition", resolver.Typed("saveDefinition", func(ctx context.Context, req definitionRequest) (glossary.Entry, error) {
		if err := r.glossary.Save(ctx, req.Term, req.Definition); err != nil {
			return glossary.Entry{}, err
		}
		return glossary.Entry{Term: req.Term, Definition: req.Definition}, nil
	}))
	reg.Define("removeDefinition", resolver.Typed("removeDefinition", func(ctx context.Context, req definitionRequest) (*struct{}, error) {
		return nil, r.glossary.Remove(ctx, req.Term)
	}))

	reg.Define("findAllArticles", resolver.Typed("findAllArticles", func(ctx context.Context, _ empty) ([]articles.Article, error) {
		return r.articles.FindAll(ctx)
	}))
	reg.Define("saveArticle", resolver.Typed("saveArticle", func(ctx context.Context, req saveArticleRequest) (articles.Article, error) {
		return r.articles.Save(ctx, articles.Article(req))
	}))
	reg.Define("deleteArticle", resolver.Typed("deleteArticle", func(ctx context.Context, req deleteArticleRequest) (*struct{}, error) {
		return nil, r.articles.Delete(ctx, req.Article)
	}))
	reg.Define("findCurrentUser", resolver.Typed("findCurrentUser", func(ctx context.Context, _ empty) (atlassian.User, error) {
		return r.confluence.CurrentUser(ctx)
	}))

	reg.Define("getContent", resolver.Typed("getContent", func(ctx context.Context, req contentRequest) (string, error) {
		return r.keywords.GetContent(ctx, req.ContentID)
	}))
	reg.Define("countMacros", resolver.Typed("countMacros", func(ctx context.Context, req contentRequest) (pagestats.MacroCount, error) {
		return r.pagestats.Macros(ctx, req.ContentID)
	}))
	reg.Define("countFooterComments", resolver.Typed("countFooterComments", func(ctx context.Context, req contentRequest) (pagestats.CommentCount, error) {
		return r.pagestats.FooterComments(ctx, req.ContentID)
	}))
	reg.Define("callOpenAI", resolver.Typed("callOpenAI", func(ctx context.Context, req promptRequest) (string, error) {
		return r.keywords.Complete(ctx, req.Prompt)
	}))
	reg.Define("extractKeywords", resolver.Typed("extractKeywords", func(ctx context.Context, req contentRequest) ([]string, error) {
		return r.keywords.Extract(ctx, req.ContentID)
	}))
	reg.Define("addKeywordsToLabels", resolver.Typed("addKeywordsToLabels", func(ctx context.Context, req labelsRequest) ([]atlassian.Label, error) {
		return r.keywords.AddLabels(ctx, req.ContentID, req.Keywords)
	}))

	reg.Define("jsonplaceholder", resolver.Typed("jsonplaceholder", func(ctx context.Context, _ empty) ([]external.User, error) {
		return r.users.Users(ctx)
	}))
	reg.Define("jsonplaceholderpost", resolver.Typed("jsonplaceholderpost", func(ctx context.Context, req postRequest) (string, error) {
		post, err := r.users.CreatePost(ctx, external.Post{Title: req.Title, Body: req.Body})
		if err != nil {
			return "", err
		}
		return post.Title, nil
	}))
	reg.Define("getQuote", resolver.Typed("getQuote", func(ctx context.Context, _ empty) (string, error) {
		quote, err := r.quotes.QuoteOfDay(ctx)
		if err != nil {
			return "", err
		}
		return quote.Text, nil
	}))

	reg.Define("validateAssignee", resolver.Typed("validateAssignee", func(ctx context.Context, req issueKeyRequest) (workflow.Result, error) {
		return r.workflow.ValidateAssignee(ctx, req.IssueKey)
	}))
}

func (r *resolvers) getText(context.Context, empty) (string, error) {
	return r.info.Greeting, nil
}

func (r *resolvers) globalSettings(context.Context, empty) (SettingsResponse, error) {
	return SettingsResponse{
		Message:   r.info.Name + " Settings loaded successfully",
		Version:   r.info.Version,
		Timestamp: r.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r *resolvers) getOrganization(ctx context.Context, _ empty) (DataResponse[[]organization.Item], error) {
	items, err := r.org.Get(ctx)
	if err != nil {
		return DataResponse[[]organization.Item]{}, err
	}
	return DataResponse[[]organization.Item]{Success: true, Data: items}, nil
}

func (r *resolvers) saveOrganization(ctx context.Context, req saveOrganizationRequest) (DataResponse[[]organization.Item], error) {
	if err := r.org.Save(ctx, req.Data); err != nil {
		return DataResponse[[]organization.Item]{}, err
	}
	return DataResponse[[]organization.Item]{Success: true, Data: req.Data, Message: "organization data saved"}, nil
}

func (r *resolvers) updateOrganizationItem(ctx context.Context, req updateOrganizationRequest) (DataResponse[[]organization.Item], error) {
	items, err := r.org.Update(ctx, req.ID, req.UpdatedItem)
	if err != nil {
		return DataResponse[[]organization.Item]{}, err
	}
	return DataResponse[[]organization.Item]{Success: true, Data: items, Message: "organization item updated"}, nil
}

func (r *resolvers) addOrganizationItem(ctx context.Context, req addOrganizationRequest) (DataResponse[[]organization.Item], error) {
	items, err := r.org.Add(ctx, req.NewItem)
	if err != nil {
		return DataResponse[[]organization.Item]{}, err
	}
	return DataResponse[[]organization.Item]{Success: true, Data: items, Message: "organization item added"}, nil
}

func (r *resolvers) deleteOrganizationItem(ctx context.Context, req idRequest) (DataResponse[[]organization.Item], error) {
	items, err := r.org.Delete(ctx, req.ID)
	if err != nil {
		return DataResponse[[]organization.Item]{}, err
	}
	return DataResponse[[]organization.Item]{Success: true, Data: items, Message: "organization item deleted"}, nil
}

func (r *resolvers) externalOrganization(ctx context.Context, _ empty) (ExternalOrganizationResponse, error) {
	items, err := r.org.ImportExternal(ctx)
	if err != nil {
		return ExternalOrganizationResponse{}, err
	}
	return ExternalOrganizationResponse{
		Success:   true,
		Data:      items,
		Source:    "JSONPlaceholder API",
		Message:   "organization data loaded from the external directory",
		Timestamp: r.now().UTC().Format(time.RFC3339Nano),
		DataCount: len(items),
	}, nil
}

func (r *resolvers) getNotices(_ context.Context, req notices.ListOptions) (NoticesResponse, error) {
	list, filters := r.notices.List(req)
	return NoticesResponse{Success: true, Notices: list, TotalCount: len(list), Filters: filters}, nil
}

func (r *resolvers) getNoticeDetail(_ context.Context, req idRequest) (NoticeDetailResponse, error) {
	n, ok, err := r.notices.Detail(req.ID)
	if err != nil {
		return NoticeDetailResponse{}, err
	}
	if !ok {
		return NoticeDetailResponse{Success: false, Message: fmt.Sprintf("notice %d not found", req.ID)}, nil
	}
	return NoticeDetailResponse{Success: true, Notice: &n}, nil
}
