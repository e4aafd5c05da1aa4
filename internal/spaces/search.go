// Package spaces implements the Confluence space search: crawl every page of
// the space listing, filter by the caller's query and project the result.
package spaces

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/paginate"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	"github.com/hmgdev/hmg-index/internal/upstream"
)

const defaultPageSize = 100

// Lister is the slice of atlassian.Confluence the searcher needs.
type Lister interface {
	ListSpaces(ctx context.Context, cursor string, limit int) (atlassian.SpacePage, error)
}

type Config struct {
	PageSize      int
	MaxIterations int
	// Timeout bounds the whole crawl. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

type SearchRequest struct {
	Query *string `json:"query,omitempty"`
}

type SearchResponse struct {
	Success       bool          `json:"success"`
	Spaces        []PublicSpace `json:"spaces"`
	TotalCount    int           `json:"totalCount"`
	OriginalCount int           `json:"originalCount"`
	HasFiltered   bool          `json:"hasFiltered"`
	SearchTerm    *string       `json:"searchTerm"`
	Truncated     bool          `json:"truncated,omitempty"`

	Message    string `json:"message,omitempty"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
}

type Searcher struct {
	lister Lister
	cfg    Config
	logger *slog.Logger
}

func NewSearcher(lister Lister, cfg Config, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = paginate.DefaultMaxIterations
	}
	return &Searcher{lister: lister, cfg: cfg, logger: logger}
}

// Search never returns an error: failures come back as Success=false.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) SearchResponse {
	logger := s.logger.With("request_id", core.RequestIDFromContext(ctx))

	query := ""
	if req.Query != nil {
		query = strings.TrimSpace(*req.Query)
	}
	logger.Info("space search started", "query", query)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	fetcher := paginate.FetcherFunc[atlassian.Space](func(ctx context.Context, cursor string) (paginate.Page[atlassian.Space], error) {
		page, err := s.lister.ListSpaces(ctx, cursor, s.cfg.PageSize)
		if err != nil {
			return paginate.Page[atlassian.Space]{}, err
		}
		next, _ := paginate.CursorFromNextLink(page.Links.Next)
		return paginate.Page[atlassian.Space]{Results: page.Results, NextCursor: next}, nil
	})

	result, err := paginate.FetchAll[atlassian.Space](ctx, fetcher, paginate.Options{
		MaxIterations: s.cfg.MaxIterations,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("space search failed", "error", err)
		return failure(err)
	}

	filtered := Filter(result.Records, query)
	logger.Info("space search finished",
		"pages", result.Pages,
		"collected", len(result.Records),
		"matched", len(filtered),
		"truncated", result.Truncated,
	)

	resp := SearchResponse{
		Success:       true,
		Spaces:        Project(filtered),
		TotalCount:    len(filtered),
		OriginalCount: len(result.Records),
		HasFiltered:   query != "",
		Truncated:     result.Truncated,
	}
	if query != "" {
		resp.SearchTerm = &query
	}
	return resp
}

func failure(err error) SearchResponse {
	resp := SearchResponse{Success: false, Spaces: []PublicSpace{}}
	var httpErr *upstream.HTTPError
	if errors.As(err, &httpErr) {
		status := httpErr.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", httpErr.StatusCode, http.StatusText(httpErr.StatusCode))
		}
		resp.Message = "space search failed: " + status
		resp.Details = httpErr.Body
		resp.HTTPStatus = httpErr.StatusCode
		return resp
	}
	resp.Message = "space search failed: " + err.Error()
	return resp
}
