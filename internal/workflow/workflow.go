// Package workflow holds the Jira workflow hooks: the assignee validator
// and the comment posted on issue creation.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// Result is the workflow validator answer: Result false blocks the
// transition and ErrorMessage is shown to the user.
type Result struct {
	Result       bool   `json:"result"`
	ErrorMessage string `json:"errorMessage"`
}

type Hooks struct {
	jira            atlassian.Jira
	assigneeMessage string
	createComment   string
}

func New(jira atlassian.Jira, doc config.WorkflowDocument) *Hooks {
	return &Hooks{
		jira:            jira,
		assigneeMessage: doc.AssigneeMessage,
		createComment:   doc.CreateComment,
	}
}

// ValidateAssignee passes only when the issue has an assignee.
func (h *Hooks) ValidateAssignee(ctx context.Context, issueKey string) (Result, error) {
	issueKey = strings.TrimSpace(issueKey)
	if issueKey == "" {
		return Result{}, fmt.Errorf("issue key is required")
	}
	issue, err := h.jira.GetIssue(ctx, issueKey)
	if err != nil {
		return Result{}, fmt.Errorf("get issue %s: %w", issueKey, err)
	}
	return Result{
		Result:       issue.Fields.Assignee != nil,
		ErrorMessage: h.assigneeMessage,
	}, nil
}

// CommentOnCreate posts the configured greeting comment on a new issue.
// It reports false when no comment is configured.
func (h *Hooks) CommentOnCreate(ctx context.Context, issueKey string) (bool, error) {
	if h.createComment == "" {
		return false, nil
	}
	if err := h.jira.AddComment(ctx, issueKey, h.createComment); err != nil {
		return false, fmt.Errorf("comment on %s: %w", issueKey, err)
	}
	core.LoggerFromContext(ctx).Info("creation comment added", "issue_key", issueKey)
	return true, nil
}
