package app

import (
	"context"
	"errors"

	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// ErrAtlassianNotConfigured is returned by every Confluence and Jira call
// when no site credentials were provided.
var ErrAtlassianNotConfigured = errors.New("atlassian is not configured (set ATLASSIAN_SITE_URL, ATLASSIAN_EMAIL and ATLASSIAN_API_TOKEN)")

type unconfiguredAtlassian struct{}

func (unconfiguredAtlassian) ListSpaces(context.Context, string, int) (atlassian.SpacePage, error) {
	return atlassian.SpacePage{}, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) PageStorageBody(context.Context, string) (string, error) {
	return "", ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) PageADFBody(context.Context, string) (atlassian.ADFDocument, error) {
	return atlassian.ADFDocument{}, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) ListFooterComments(context.Context, string, string, int) (atlassian.CommentPage, error) {
	return atlassian.CommentPage{}, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) AddLabels(context.Context, string, []string) ([]atlassian.Label, error) {
	return nil, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) CurrentUser(context.Context) (atlassian.User, error) {
	return atlassian.User{}, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) SearchIssues(context.Context, string, int) ([]atlassian.Issue, error) {
	return nil, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) GetIssue(context.Context, string) (atlassian.Issue, error) {
	return atlassian.Issue{}, ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) AddComment(context.Context, string, string) error {
	return ErrAtlassianNotConfigured
}

func (unconfiguredAtlassian) CreateServiceDeskRequest(context.Context, atlassian.ServiceDeskRequest) (atlassian.CreatedRequest, error) {
	return atlassian.CreatedRequest{}, ErrAtlassianNotConfigured
}
