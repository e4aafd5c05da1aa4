// Package upstream holds the plumbing shared by every outbound REST client:
// capped body reads, a uniform non-2xx error and transient-error detection.
package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultMaxBodySize = 10 << 20 // 10 MiB
	maxErrorBody       = 512
)

// HTTPError is returned when an upstream answers with an unexpected status.
type HTTPError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n] + "..."
	}
	if msg != "" {
		msg = ": " + msg
	}
	return fmt.Sprintf("%s: status %d%s", e.Service, e.StatusCode, msg)
}

// Transient reports whether retrying the same request could succeed.
func (e *HTTPError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsTransient reports whether err is an HTTPError worth retrying.
func IsTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	return false
}

type Client struct {
	Service     string
	HTTP        *http.Client
	UserAgent   string
	MaxBodySize int64
}

func NewClient(service string, timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = "hmg-index/1.1"
	}
	return &Client{
		Service:     service,
		HTTP:        &http.Client{Timeout: timeout},
		UserAgent:   userAgent,
		MaxBodySize: defaultMaxBodySize,
	}
}

// Do sends req and returns the body. A status outside want (any 2xx when
// want is empty) becomes an *HTTPError carrying the body.
func (c *Client) Do(req *http.Request, want ...int) ([]byte, int, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", c.Service, err)
	}
	defer resp.Body.Close()

	maxBody := c.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read body: %w", c.Service, err)
	}
	if int64(len(body)) > maxBody {
		return nil, resp.StatusCode, fmt.Errorf("%s: response too large", c.Service)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if len(want) > 0 {
		ok = slices.Contains(want, resp.StatusCode)
	}
	if !ok {
		return body, resp.StatusCode, &HTTPError{
			Service:    c.Service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	return body, resp.StatusCode, nil
}
