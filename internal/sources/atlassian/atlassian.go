// Package atlassian describes the Confluence and Jira REST surface the
// resolvers depend on.
package atlassian

import (
	"context"
	"encoding/json"
)

// Space is a Confluence space as returned by /wiki/api/v2/spaces.
type Space struct {
	ID          string            `json:"id"`
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Type        string            `json:"type,omitempty"`
	Status      string            `json:"status,omitempty"`
	AuthorID    string            `json:"authorId,omitempty"`
	CreatedAt   string            `json:"createdAt,omitempty"`
	HomepageID  string            `json:"homepageId,omitempty"`
	Description *SpaceDescription `json:"description,omitempty"`
	Links       *Links            `json:"_links,omitempty"`
}

type SpaceDescription struct {
	Plain *BodyValue `json:"plain,omitempty"`
	View  *BodyValue `json:"view,omitempty"`
}

type BodyValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation,omitempty"`
}

type Links struct {
	WebUI string `json:"webui,omitempty"`
	Base  string `json:"base,omitempty"`
	Next  string `json:"next,omitempty"`
}

// SpacePage is one page of the space listing; Links.Next holds the
// continuation URL when more pages exist.
type SpacePage struct {
	Results []Space `json:"results"`
	Links   Links   `json:"_links"`
}

// ADFNode is one node of an Atlassian Document Format tree.
type ADFNode struct {
	Type    string          `json:"type"`
	Attrs   json.RawMessage `json:"attrs,omitempty"`
	Text    string          `json:"text,omitempty"`
	Content []ADFNode       `json:"content,omitempty"`
}

// ADFDocument is a page body in atlas_doc_format.
type ADFDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []ADFNode `json:"content"`
}

// CountTopLevel counts the direct children of the document with nodeType.
func (d ADFDocument) CountTopLevel(nodeType string) int {
	n := 0
	for _, node := range d.Content {
		if node.Type == nodeType {
			n++
		}
	}
	return n
}

type Comment struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	PageID string `json:"pageId,omitempty"`
}

// CommentPage is one page of a comment listing.
type CommentPage struct {
	Results []Comment `json:"results"`
	Links   Links     `json:"_links"`
}

type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName,omitempty"`
	PublicName  string `json:"publicName,omitempty"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type,omitempty"`
}

type Label struct {
	ID     string `json:"id,omitempty"`
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary  string       `json:"summary,omitempty"`
	Status   *IssueStatus `json:"status,omitempty"`
	Priority *IssueStatus `json:"priority,omitempty"`
	Assignee *User        `json:"assignee,omitempty"`
	Created  string       `json:"created,omitempty"`
}

type IssueStatus struct {
	Name string `json:"name"`
}

// StatusName is empty when the issue carries no status.
func (i Issue) StatusName() string {
	if i.Fields.Status == nil {
		return ""
	}
	return i.Fields.Status.Name
}

type ServiceDeskRequest struct {
	ServiceDeskID string
	RequestTypeID string
	Summary       string
	Description   string
}

type CreatedRequest struct {
	IssueID  string          `json:"issueId"`
	IssueKey string          `json:"issueKey"`
	Raw      json.RawMessage `json:"-"`
}

type Confluence interface {
	ListSpaces(ctx context.Context, cursor string, limit int) (SpacePage, error)
	PageStorageBody(ctx context.Context, pageID string) (string, error)
	PageADFBody(ctx context.Context, pageID string) (ADFDocument, error)
	ListFooterComments(ctx context.Context, pageID, cursor string, limit int) (CommentPage, error)
	AddLabels(ctx context.Context, contentID string, names []string) ([]Label, error)
	CurrentUser(ctx context.Context) (User, error)
}

type Jira interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error)
	GetIssue(ctx context.Context, key string) (Issue, error)
	AddComment(ctx context.Context, key, body string) error
	CreateServiceDeskRequest(ctx context.Context, request ServiceDeskRequest) (CreatedRequest, error)
}
