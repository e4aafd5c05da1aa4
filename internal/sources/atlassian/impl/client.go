package impl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/upstream"
)

// pathSegment guards ids and issue keys interpolated into request paths.
var pathSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Client talks to a single Atlassian Cloud site with basic auth (email +
// API token). It implements both atlassian.Confluence and atlassian.Jira.
type Client struct {
	confluence *upstream.Client
	jira       *upstream.Client
	baseURL    *url.URL
	email      string
	token      string
}

func NewClient(cfg config.AtlassianEnvConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SiteURL) == "" {
		return nil, fmt.Errorf("atlassian: site url is required (set ATLASSIAN_SITE_URL)")
	}
	base, err := url.Parse(strings.TrimRight(cfg.SiteURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("atlassian: parse site url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("atlassian: site url %q must be absolute", cfg.SiteURL)
	}
	return &Client{
		confluence: upstream.NewClient("confluence", cfg.HTTPTimeout, cfg.UserAgent),
		jira:       upstream.NewClient("jira", cfg.HTTPTimeout, cfg.UserAgent),
		baseURL:    base,
		email:      cfg.Email,
		token:      cfg.APIToken,
	}, nil
}

func (c *Client) ListSpaces(ctx context.Context, cursor string, limit int) (atlassian.SpacePage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	var page atlassian.SpacePage
	err := c.call(ctx, c.confluence, http.MethodGet, "/wiki/api/v2/spaces", query, nil, &page)
	return page, err
}

func (c *Client) PageStorageBody(ctx context.Context, pageID string) (string, error) {
	pageID = strings.TrimSpace(pageID)
	if !pathSegment.MatchString(pageID) {
		return "", fmt.Errorf("confluence: invalid page id %q", pageID)
	}
	var page struct {
		Body struct {
			Storage atlassian.BodyValue `json:"storage"`
		} `json:"body"`
	}
	query := url.Values{"body-format": {"storage"}}
	if err := c.call(ctx, c.confluence, http.MethodGet, "/wiki/api/v2/pages/"+pageID, query, nil, &page); err != nil {
		return "", err
	}
	return page.Body.Storage.Value, nil
}

// PageADFBody fetches the page in atlas_doc_format. The API returns the
// document as a JSON string inside body.atlas_doc_format.value.
func (c *Client) PageADFBody(ctx context.Context, pageID string) (atlassian.ADFDocument, error) {
	pageID = strings.TrimSpace(pageID)
	if !pathSegment.MatchString(pageID) {
		return atlassian.ADFDocument{}, fmt.Errorf("confluence: invalid page id %q", pageID)
	}
	var page struct {
		Body struct {
			ADF atlassian.BodyValue `json:"atlas_doc_format"`
		} `json:"body"`
	}
	query := url.Values{"body-format": {"atlas_doc_format"}}
	if err := c.call(ctx, c.confluence, http.MethodGet, "/wiki/api/v2/pages/"+pageID, query, nil, &page); err != nil {
		return atlassian.ADFDocument{}, err
	}
	var doc atlassian.ADFDocument
	if strings.TrimSpace(page.Body.ADF.Value) == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(page.Body.ADF.Value), &doc); err != nil {
		return atlassian.ADFDocument{}, fmt.Errorf("confluence: decode adf body of %s: %w", pageID, err)
	}
	return doc, nil
}

func (c *Client) ListFooterComments(ctx context.Context, pageID, cursor string, limit int) (atlassian.CommentPage, error) {
	pageID = strings.TrimSpace(pageID)
	if !pathSegment.MatchString(pageID) {
		return atlassian.CommentPage{}, fmt.Errorf("confluence: invalid page id %q", pageID)
	}
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	var page atlassian.CommentPage
	err := c.call(ctx, c.confluence, http.MethodGet, "/wiki/api/v2/pages/"+pageID+"/footer-comments", query, nil, &page)
	return page, err
}

func (c *Client) AddLabels(ctx context.Context, contentID string, names []string) ([]atlassian.Label, error) {
	if !pathSegment.MatchString(contentID) {
		return nil, fmt.Errorf("confluence: invalid content id %q", contentID)
	}
	labels := make([]atlassian.Label, 0, len(names))
	for _, name := range names {
		labels = append(labels, atlassian.Label{Prefix: "global", Name: name})
	}
	var resp struct {
		Results []atlassian.Label `json:"results"`
	}
	path := "/wiki/rest/api/content/" + contentID + "/label"
	if err := c.call(ctx, c.confluence, http.MethodPost, path, nil, labels, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) CurrentUser(ctx context.Context) (atlassian.User, error) {
	var user atlassian.User
	err := c.call(ctx, c.confluence, http.MethodGet, "/wiki/rest/api/user/current", nil, nil, &user)
	return user, err
}

func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]atlassian.Issue, error) {
	query := url.Values{"jql": {jql}}
	if maxResults > 0 {
		query.Set("maxResults", strconv.Itoa(maxResults))
	}
	var resp struct {
		Issues []atlassian.Issue `json:"issues"`
	}
	if err := c.call(ctx, c.jira, http.MethodGet, "/rest/api/3/search", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Issues, nil
}

func (c *Client) GetIssue(ctx context.Context, key string) (atlassian.Issue, error) {
	var issue atlassian.Issue
	if !pathSegment.MatchString(key) {
		return issue, fmt.Errorf("jira: invalid issue key %q", key)
	}
	err := c.call(ctx, c.jira, http.MethodGet, "/rest/api/3/issue/"+key, nil, nil, &issue)
	return issue, err
}

func (c *Client) AddComment(ctx context.Context, key, body string) error {
	if !pathSegment.MatchString(key) {
		return fmt.Errorf("jira: invalid issue key %q", key)
	}
	path := "/rest/api/2/issue/" + key + "/comment"
	return c.call(ctx, c.jira, http.MethodPost, path, nil, map[string]string{"body": body}, nil)
}

func (c *Client) CreateServiceDeskRequest(ctx context.Context, request atlassian.ServiceDeskRequest) (atlassian.CreatedRequest, error) {
	payload := map[string]any{
		"serviceDeskId": request.ServiceDeskID,
		"requestTypeId": request.RequestTypeID,
		"requestFieldValues": map[string]string{
			"summary":     request.Summary,
			"description": request.Description,
		},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/rest/servicedeskapi/request", nil, payload)
	if err != nil {
		return atlassian.CreatedRequest{}, err
	}
	body, _, err := c.jira.Do(req, http.StatusCreated)
	if err != nil {
		return atlassian.CreatedRequest{}, err
	}
	var created atlassian.CreatedRequest
	if err := json.Unmarshal(body, &created); err != nil {
		return atlassian.CreatedRequest{}, fmt.Errorf("jira: decode service desk response: %w", err)
	}
	created.Raw = json.RawMessage(body)
	return created, nil
}

func (c *Client) call(ctx context.Context, client *upstream.Client, method, path string, query url.Values, in, out any) error {
	ctx, span := otel.Tracer("hmg-index/atlassian").Start(ctx, client.Service+" "+method)
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("url.path", path),
	)
	defer span.End()

	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	body, status, err := client.Do(req)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", client.Service, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.email != "" || c.token != "" {
		req.SetBasicAuth(c.email, c.token)
	}
	return req, nil
}
