// Package pagestats answers small questions about a single Confluence page:
// how many macros its body holds and how many footer comments it has.
package pagestats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/paginate"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

const defaultPageSize = 50

// ErrMissingContentID is returned when the page id is blank.
var ErrMissingContentID = errors.New("contentId is required")

// Pages is the slice of atlassian.Confluence the counters need.
type Pages interface {
	PageADFBody(ctx context.Context, pageID string) (atlassian.ADFDocument, error)
	ListFooterComments(ctx context.Context, pageID, cursor string, limit int) (atlassian.CommentPage, error)
}

type Config struct {
	PageSize      int
	MaxIterations int
}

type MacroCount struct {
	ContentID string `json:"contentId"`
	Count     int    `json:"count"`
}

type CommentCount struct {
	ContentID string `json:"contentId"`
	Count     int    `json:"count"`
	Truncated bool   `json:"truncated,omitempty"`
	Message   string `json:"message"`
}

type Counter struct {
	pages  Pages
	cfg    Config
	logger *slog.Logger
}

func NewCounter(pages Pages, cfg Config, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = paginate.DefaultMaxIterations
	}
	return &Counter{pages: pages, cfg: cfg, logger: logger}
}

// Macros counts the extension nodes at the top level of the page body.
// Nested extensions (inside tables or layouts) are not counted.
func (c *Counter) Macros(ctx context.Context, contentID string) (MacroCount, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return MacroCount{}, ErrMissingContentID
	}
	doc, err := c.pages.PageADFBody(ctx, contentID)
	if err != nil {
		return MacroCount{}, fmt.Errorf("fetch page %s: %w", contentID, err)
	}
	count := doc.CountTopLevel("extension")
	c.logger.Debug("macros counted",
		"request_id", core.RequestIDFromContext(ctx),
		"content_id", contentID,
		"count", count,
	)
	return MacroCount{ContentID: contentID, Count: count}, nil
}

// FooterComments walks every page of the footer comment listing.
func (c *Counter) FooterComments(ctx context.Context, contentID string) (CommentCount, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return CommentCount{}, ErrMissingContentID
	}
	logger := c.logger.With("request_id", core.RequestIDFromContext(ctx), "content_id", contentID)

	fetcher := paginate.FetcherFunc[atlassian.Comment](func(ctx context.Context, cursor string) (paginate.Page[atlassian.Comment], error) {
		page, err := c.pages.ListFooterComments(ctx, contentID, cursor, c.cfg.PageSize)
		if err != nil {
			return paginate.Page[atlassian.Comment]{}, err
		}
		next, _ := paginate.CursorFromNextLink(page.Links.Next)
		return paginate.Page[atlassian.Comment]{Results: page.Results, NextCursor: next}, nil
	})
	result, err := paginate.FetchAll[atlassian.Comment](ctx, fetcher, paginate.Options{
		MaxIterations: c.cfg.MaxIterations,
		Logger:        logger,
	})
	if err != nil {
		return CommentCount{}, fmt.Errorf("list footer comments of %s: %w", contentID, err)
	}

	count := len(result.Records)
	logger.Debug("footer comments counted", "count", count, "pages", result.Pages)
	return CommentCount{
		ContentID: contentID,
		Count:     count,
		Truncated: result.Truncated,
		Message:   fmt.Sprintf("Number of comments on this page: %d", count),
	}, nil
}
