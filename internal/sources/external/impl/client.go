package impl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/retry"
	"github.com/hmgdev/hmg-index/internal/sources/external"
	"github.com/hmgdev/hmg-index/internal/upstream"
)

type Client struct {
	placeholder    *upstream.Client
	quotes         *upstream.Client
	placeholderURL string
	quotesURL      string
	retry          retry.Config
}

func NewClient(cfg config.ExternalEnvConfig) *Client {
	return &Client{
		placeholder:    upstream.NewClient("jsonplaceholder", cfg.HTTPTimeout, cfg.UserAgent),
		quotes:         upstream.NewClient("zenquotes", cfg.HTTPTimeout, cfg.UserAgent),
		placeholderURL: strings.TrimRight(cfg.PlaceholderBaseURL, "/"),
		quotesURL:      strings.TrimRight(cfg.QuotesBaseURL, "/"),
		retry: retry.Config{
			Attempts:  3,
			BaseDelay: 250 * time.Millisecond,
			MaxDelay:  2 * time.Second,
			Retryable: retryable,
		},
	}
}

// retryable retries transport failures and transient statuses; other HTTP
// errors are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *upstream.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	return true
}

func (c *Client) Users(ctx context.Context) ([]external.User, error) {
	var users []external.User
	err := c.do(ctx, c.placeholder, http.MethodGet, c.placeholderURL+"/users", nil, &users)
	return users, err
}

func (c *Client) CreatePost(ctx context.Context, post external.Post) (external.Post, error) {
	if post.UserID == 0 {
		post.UserID = 1
	}
	var created external.Post
	err := c.do(ctx, c.placeholder, http.MethodPost, c.placeholderURL+"/posts", post, &created)
	return created, err
}

func (c *Client) QuoteOfDay(ctx context.Context) (external.Quote, error) {
	var quotes []external.Quote
	if err := c.do(ctx, c.quotes, http.MethodGet, c.quotesURL+"/today", nil, &quotes); err != nil {
		return external.Quote{}, err
	}
	if len(quotes) == 0 {
		return external.Quote{}, fmt.Errorf("zenquotes: empty response")
	}
	return quotes[0], nil
}

func (c *Client) do(ctx context.Context, client *upstream.Client, method, endpoint string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", client.Service, err)
		}
	}

	logger := core.LoggerFromContext(ctx)
	attempt := 0
	var body []byte
	err := retry.Do(ctx, c.retry, func() error {
		attempt++
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		b, _, err := client.Do(req)
		if err != nil {
			logger.Debug("external request failed", "service", client.Service, "attempt", attempt, "error", err)
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", client.Service, err)
	}
	return nil
}
