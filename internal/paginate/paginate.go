// Package paginate drives cursor-paginated listing endpoints to completion.
//
// Pages are fetched strictly one after another since each cursor is only
// known once the previous page has arrived. The loop ends when a page has no
// next cursor, when a cursor repeats, or when the iteration budget runs out.
// Only the last case reports Truncated; all three return what was collected.
// A fetch error aborts the whole crawl without partial results.
package paginate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hmgdev/hmg-index/internal/core"
)

const DefaultMaxIterations = 10

// Page is one fetched page of a listing. An empty NextCursor marks the end.
type Page[T any] struct {
	Results    []T
	NextCursor string
}

// Fetcher fetches the page addressed by cursor; the first page has cursor "".
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, cursor string) (Page[T], error)
}

type FetcherFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

func (f FetcherFunc[T]) FetchPage(ctx context.Context, cursor string) (Page[T], error) {
	return f(ctx, cursor)
}

type Options struct {
	// MaxIterations caps the number of fetches. Zero means DefaultMaxIterations.
	MaxIterations int
	// Logger defaults to the context logger.
	Logger *slog.Logger
}

type Result[T any] struct {
	Records []T
	Pages   int
	// Truncated is set when the iteration budget stopped the crawl while the
	// upstream still advertised another page.
	Truncated bool
}

// FetchAll collects every record reachable from the first page.
func FetchAll[T any](ctx context.Context, fetcher Fetcher[T], opts Options) (Result[T], error) {
	if fetcher == nil {
		return Result[T]{}, fmt.Errorf("paginate: fetcher is required")
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = core.LoggerFromContext(ctx)
	}

	ctx, span := otel.Tracer("hmg-index/paginate").Start(ctx, "paginate.fetch_all")
	defer span.End()
	span.SetAttributes(attribute.Int("paginate.max_iterations", maxIterations))

	var (
		records []T
		cursor  string
		seen    = map[string]struct{}{}
	)
	for pages := 1; ; pages++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Result[T]{}, err
		}

		logger.Debug("fetching page", "page", pages, "max_iterations", maxIterations, "cursor", cursor)
		page, err := fetcher.FetchPage(ctx, cursor)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Result[T]{}, fmt.Errorf("fetch page %d: %w", pages, err)
		}
		records = append(records, page.Results...)

		result := Result[T]{Records: records, Pages: pages}
		next := page.NextCursor
		switch {
		case next == "":
		case hasCursor(seen, next):
			logger.Warn("pagination cursor repeated, stopping", "page", pages, "cursor", next)
		case pages >= maxIterations:
			logger.Warn("pagination iteration budget reached, returning partial results",
				"pages", pages, "records", len(records))
			result.Truncated = true
		default:
			seen[next] = struct{}{}
			cursor = next
			continue
		}

		span.SetAttributes(
			attribute.Int("paginate.pages", result.Pages),
			attribute.Int("paginate.records", len(result.Records)),
			attribute.Bool("paginate.truncated", result.Truncated),
		)
		span.SetStatus(codes.Ok, "")
		return result, nil
	}
}

func hasCursor(seen map[string]struct{}, cursor string) bool {
	_, ok := seen[cursor]
	return ok
}

// CursorFromNextLink extracts the cursor query parameter from a "next" link,
// which may be absolute or relative. ok is false when the link is empty,
// unparsable or carries no cursor; callers treat that as end of data.
func CursorFromNextLink(link string) (cursor string, ok bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	cursor = u.Query().Get("cursor")
	return cursor, cursor != ""
}
