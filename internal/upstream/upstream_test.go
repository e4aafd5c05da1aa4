package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stubClient(status int, body string) *Client {
	c := NewClient("confluence", time.Second, "")
	c.HTTP = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("User-Agent"); got != "hmg-index/1.1" {
			return nil, fmt.Errorf("User-Agent = %q", got)
		}
		return &http.Response{
			StatusCode: status,
			Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}
	return c
}

func TestClientDo_Success(t *testing.T) {
	t.Parallel()

	req, _ := http.NewRequest(http.MethodGet, "http://upstream.test/x", nil)
	body, status, err := stubClient(http.StatusOK, `{"ok":true}`).Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusOK || string(body) != `{"ok":true}` {
		t.Fatalf("Do() = %d %q", status, body)
	}
}

func TestClientDo_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	req, _ := http.NewRequest(http.MethodPost, "http://upstream.test/x", nil)
	_, _, err := stubClient(http.StatusOK, "{}").Do(req, http.StatusCreated)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Do() error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusOK || httpErr.Transient() {
		t.Fatalf("unexpected error: %+v", httpErr)
	}
}

func TestClientDo_TransientAndBody(t *testing.T) {
	t.Parallel()

	req, _ := http.NewRequest(http.MethodGet, "http://upstream.test/x", nil)
	_, status, err := stubClient(http.StatusServiceUnavailable, "down for maintenance").Do(req)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", status)
	}
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "confluence: status 503: down for maintenance") {
		t.Fatalf("Error() = %q", err.Error())
	}
	if IsTransient(errors.New("plain")) {
		t.Fatalf("plain errors are not transient")
	}
}

func TestClientDo_BodyTooLarge(t *testing.T) {
	t.Parallel()

	c := stubClient(http.StatusOK, strings.Repeat("x", 32))
	c.MaxBodySize = 8
	req, _ := http.NewRequest(http.MethodGet, "http://upstream.test/x", nil)
	if _, _, err := c.Do(req); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("Do() error = %v, want too large", err)
	}
}

func TestHTTPError_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	err := &HTTPError{Service: "confluence", StatusCode: http.StatusBadGateway, Body: "x" + strings.Repeat("가", 300)}
	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("Error() is not valid UTF-8: %q", msg)
	}
	if !strings.HasSuffix(msg, "...") || len(msg) > len("confluence: status 502: ")+maxErrorBody+len("...") {
		t.Fatalf("Error() not truncated: %d bytes", len(msg))
	}

	short := &HTTPError{Service: "jira", StatusCode: http.StatusNotFound, Body: " missing "}
	if got := short.Error(); got != "jira: status 404: missing" {
		t.Fatalf("Error() = %q", got)
	}
}
