// Package resolver is the named-function registry behind the HTTP API.
// Each resolver takes a JSON payload and returns a JSON-serialisable value.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hmgdev/hmg-index/internal/core"
)

var ErrUnknownResolver = errors.New("unknown resolver")

// PayloadError marks a payload that could not be decoded or failed
// validation. The API maps it to 400.
type PayloadError struct {
	Resolver string
	Err      error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("resolver %s: invalid payload: %v", e.Resolver, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Validator is implemented by payload types that check their own fields.
type Validator interface {
	Validate() error
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{handlers: map[string]HandlerFunc{}, logger: logger}
}

// Define registers fn under name. Defining a name twice panics.
func (r *Registry) Define(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[name]; dup {
		panic(fmt.Sprintf("resolver %q defined twice", name))
	}
	r.handlers[name] = fn
}

// Names lists the registered resolvers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named resolver with a fresh request id, a scoped logger
// and a span.
func (r *Registry) Invoke(ctx context.Context, name string, payload json.RawMessage) (any, error) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResolver, name)
	}

	requestID := core.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = core.WithRequestID(ctx, requestID)
	}
	ctx = core.WithResolver(ctx, name)
	logger := r.logger.With("resolver", name, "request_id", requestID)
	ctx = core.WithLogger(ctx, logger)

	ctx, span := otel.Tracer("hmg-index/resolver").Start(ctx, "resolver."+name)
	span.SetAttributes(
		attribute.String("resolver.name", name),
		attribute.String("request.id", requestID),
	)
	defer span.End()

	start := time.Now()
	out, err := fn(ctx, payload)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("resolver failed", "duration", elapsed, "error", err)
		return nil, err
	}
	logger.Info("resolver completed", "duration", elapsed)
	return out, nil
}

// Typed adapts a function over a concrete payload type. Payloads are
// decoded strictly: unknown fields and trailing data are rejected. An empty
// or null payload yields the zero Req.
func Typed[Req any, Resp any](name string, fn func(ctx context.Context, req Req) (Resp, error)) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req Req
		if err := decodeStrict(payload, &req); err != nil {
			return nil, &PayloadError{Resolver: name, Err: err}
		}
		if v, ok := any(req).(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, &PayloadError{Resolver: name, Err: err}
			}
		}
		return fn(ctx, req)
	}
}

func decodeStrict(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after payload")
	}
	return nil
}
