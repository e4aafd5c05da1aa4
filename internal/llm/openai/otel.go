package openai

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hmgdev/hmg-index/internal/config"
)

// traceMiddleware records response status on the active span and, when
// enabled, the request and response bodies up to cfg.MaxBodyBytes.
func traceMiddleware(cfg config.OpenAIOTelEnvConfig) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		span := trace.SpanFromContext(req.Context())
		capture := cfg.CaptureBodies && span.IsRecording()

		if capture && req.Body != nil {
			req.Body = captureBody(req.Body, cfg.MaxBodyBytes, recordBody(span, "input", "openai.request.body"))
		}

		res, err := next(req)
		if err != nil || res == nil {
			return res, err
		}
		if span.IsRecording() {
			span.AddEvent("openai.response.meta", trace.WithAttributes(
				attribute.Int("http.status_code", res.StatusCode),
			))
		}
		if capture && res.Body != nil {
			res.Body = captureBody(res.Body, cfg.MaxBodyBytes, recordBody(span, "output", "openai.response.body"))
		}
		return res, nil
	}
}

func recordBody(span trace.Span, kind, event string) func([]byte, bool) {
	return func(body []byte, truncated bool) {
		value := strings.ToValidUTF8(string(body), "�")
		span.SetAttributes(
			attribute.String(kind+".mime_type", "application/json"),
			attribute.String(kind+".value", value),
			attribute.Bool(kind+".truncated", truncated),
		)
		span.AddEvent(event, trace.WithAttributes(
			attribute.Int("body.bytes", len(body)),
			attribute.Bool("truncated", truncated),
		))
	}
}

// bodyCapture tees up to limit bytes of a body and reports them on Close.
// A negative limit captures everything; zero captures nothing.
type bodyCapture struct {
	rc        io.ReadCloser
	limit     int
	buf       bytes.Buffer
	truncated bool
	once      sync.Once
	done      func([]byte, bool)
}

func captureBody(rc io.ReadCloser, limit int, done func([]byte, bool)) io.ReadCloser {
	return &bodyCapture{rc: rc, limit: limit, done: done}
}

func (c *bodyCapture) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	if n > 0 && c.limit != 0 {
		chunk := p[:n]
		if c.limit > 0 {
			room := c.limit - c.buf.Len()
			if room < len(chunk) {
				chunk = chunk[:max(room, 0)]
				c.truncated = true
			}
		}
		_, _ = c.buf.Write(chunk)
	}
	return n, err
}

func (c *bodyCapture) Close() error {
	c.once.Do(func() { c.done(c.buf.Bytes(), c.truncated) })
	return c.rc.Close()
}
