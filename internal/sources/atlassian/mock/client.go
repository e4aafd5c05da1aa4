package mock

import (
	"context"
	"fmt"

	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// Confluence serves space pages keyed by cursor ("" is the first page).
type Confluence struct {
	SpacePages map[string]atlassian.SpacePage
	Bodies     map[string]string
	Documents  map[string]atlassian.ADFDocument
	// Comments holds footer comment pages keyed by page id, then cursor.
	Comments map[string]map[string]atlassian.CommentPage
	User     atlassian.User
	Err      error

	SpaceCalls   []string
	Limits       []int
	Labels       map[string][]string
	CommentCalls []string
}

func (c *Confluence) ListSpaces(ctx context.Context, cursor string, limit int) (atlassian.SpacePage, error) {
	_ = ctx
	c.SpaceCalls = append(c.SpaceCalls, cursor)
	c.Limits = append(c.Limits, limit)
	if c.Err != nil {
		return atlassian.SpacePage{}, c.Err
	}
	page, ok := c.SpacePages[cursor]
	if !ok {
		return atlassian.SpacePage{}, fmt.Errorf("mock: no page for cursor %q", cursor)
	}
	return page, nil
}

func (c *Confluence) PageStorageBody(ctx context.Context, pageID string) (string, error) {
	_ = ctx
	if c.Err != nil {
		return "", c.Err
	}
	body, ok := c.Bodies[pageID]
	if !ok {
		return "", fmt.Errorf("mock: no page %q", pageID)
	}
	return body, nil
}

func (c *Confluence) PageADFBody(ctx context.Context, pageID string) (atlassian.ADFDocument, error) {
	_ = ctx
	if c.Err != nil {
		return atlassian.ADFDocument{}, c.Err
	}
	doc, ok := c.Documents[pageID]
	if !ok {
		return atlassian.ADFDocument{}, fmt.Errorf("mock: no page %q", pageID)
	}
	return doc, nil
}

func (c *Confluence) ListFooterComments(ctx context.Context, pageID, cursor string, limit int) (atlassian.CommentPage, error) {
	_ = ctx
	c.CommentCalls = append(c.CommentCalls, pageID+"@"+cursor)
	c.Limits = append(c.Limits, limit)
	if c.Err != nil {
		return atlassian.CommentPage{}, c.Err
	}
	page, ok := c.Comments[pageID][cursor]
	if !ok {
		return atlassian.CommentPage{}, fmt.Errorf("mock: no comments for %q at cursor %q", pageID, cursor)
	}
	return page, nil
}

func (c *Confluence) AddLabels(ctx context.Context, contentID string, names []string) ([]atlassian.Label, error) {
	_ = ctx
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Labels == nil {
		c.Labels = map[string][]string{}
	}
	c.Labels[contentID] = append(c.Labels[contentID], names...)
	out := make([]atlassian.Label, 0, len(names))
	for _, name := range names {
		out = append(out, atlassian.Label{Prefix: "global", Name: name})
	}
	return out, nil
}

func (c *Confluence) CurrentUser(ctx context.Context) (atlassian.User, error) {
	_ = ctx
	if c.Err != nil {
		return atlassian.User{}, c.Err
	}
	return c.User, nil
}

type Jira struct {
	Issues   map[string]atlassian.Issue
	Search   []atlassian.Issue
	Created  atlassian.CreatedRequest
	Err      error
	Comments map[string][]string
	Queries  []string
	Requests []atlassian.ServiceDeskRequest
}

func (j *Jira) SearchIssues(ctx context.Context, jql string, maxResults int) ([]atlassian.Issue, error) {
	_ = ctx
	j.Queries = append(j.Queries, jql)
	if j.Err != nil {
		return nil, j.Err
	}
	if maxResults > 0 && len(j.Search) > maxResults {
		return j.Search[:maxResults], nil
	}
	return j.Search, nil
}

func (j *Jira) GetIssue(ctx context.Context, key string) (atlassian.Issue, error) {
	_ = ctx
	if j.Err != nil {
		return atlassian.Issue{}, j.Err
	}
	issue, ok := j.Issues[key]
	if !ok {
		return atlassian.Issue{}, fmt.Errorf("mock: no issue %q", key)
	}
	return issue, nil
}

func (j *Jira) AddComment(ctx context.Context, key, body string) error {
	_ = ctx
	if j.Err != nil {
		return j.Err
	}
	if j.Comments == nil {
		j.Comments = map[string][]string{}
	}
	j.Comments[key] = append(j.Comments[key], body)
	return nil
}

func (j *Jira) CreateServiceDeskRequest(ctx context.Context, request atlassian.ServiceDeskRequest) (atlassian.CreatedRequest, error) {
	_ = ctx
	j.Requests = append(j.Requests, request)
	if j.Err != nil {
		return atlassian.CreatedRequest{}, j.Err
	}
	return j.Created, nil
}
