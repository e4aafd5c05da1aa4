// Package servicedesk files customer requests in Jira Service Management.
package servicedesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/upstream"
)

type Request struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	AccountID string `json:"accountId,omitempty"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

type Response struct {
	Success    bool            `json:"success"`
	IssueKey   string          `json:"issueKey,omitempty"`
	IssueID    string          `json:"issueId,omitempty"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
	Details    string          `json:"details,omitempty"`
	HTTPStatus int             `json:"httpStatus,omitempty"`
}

type Service struct {
	jira          atlassian.Jira
	serviceDeskID string
	requestTypeID string
}

func New(jira atlassian.Jira, cfg config.AtlassianEnvConfig) *Service {
	return &Service{jira: jira, serviceDeskID: cfg.ServiceDeskID, requestTypeID: cfg.RequestTypeID}
}

// Create files req. Upstream failures are reported in the response, not as
// an error; only an invalid request returns one.
func (s *Service) Create(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	logger := core.LoggerFromContext(ctx)
	logger.Info("creating service desk request",
		"title_len", len(req.Title),
		"content_len", len(req.Content),
		"has_account_id", req.AccountID != "",
	)

	created, err := s.jira.CreateServiceDeskRequest(ctx, atlassian.ServiceDeskRequest{
		ServiceDeskID: s.serviceDeskID,
		RequestTypeID: s.requestTypeID,
		Summary:       strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Content),
	})
	if err != nil {
		logger.Error("service desk request failed", "error", err)
		var httpErr *upstream.HTTPError
		if errors.As(err, &httpErr) {
			return Response{
				Message:    fmt.Sprintf("service request failed: %s", statusText(httpErr)),
				Details:    httpErr.Body,
				HTTPStatus: httpErr.StatusCode,
			}, nil
		}
		return Response{Message: "service request failed: " + err.Error()}, nil
	}

	key := created.IssueKey
	if key == "" {
		key = created.IssueID
	}
	logger.Info("service desk request created", "issue_key", key)
	return Response{
		Success:  true,
		IssueKey: key,
		IssueID:  created.IssueID,
		Message:  "service request created",
		Data:     created.Raw,
	}, nil
}

func statusText(e *upstream.HTTPError) string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d", e.StatusCode)
}
