// Package api exposes the resolver registry and the Jira event hooks over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hmgdev/hmg-index/internal/app"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

const bodyLimit = "2M"

// Resolvers is the slice of resolver.Registry the server needs.
type Resolvers interface {
	Invoke(ctx context.Context, name string, payload json.RawMessage) (any, error)
	Names() []string
}

// IssueHooks runs the issue-created event handlers.
type IssueHooks interface {
	OnIssueCreated(ctx context.Context, issue atlassian.Issue) (app.IssueCreated, error)
}

type Config struct {
	Service string
	Version string
	// AllowOrigins defaults to "*".
	AllowOrigins []string
}

type Server struct {
	resolvers Resolvers
	hooks     IssueHooks
	cfg       Config
	logger    *slog.Logger
	echo      *echo.Echo
}

type invokeRequest struct {
	Payload json.RawMessage `json:"payload"`
}

type issueCreatedRequest struct {
	Issue atlassian.Issue `json:"issue"`
}

func NewServer(resolvers Resolvers, hooks IssueHooks, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Service == "" {
		cfg.Service = "hmg-index"
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{resolvers: resolvers, hooks: hooks, cfg: cfg, logger: logger, echo: e}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.logger.Warn("http request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			s.logger.Info("http request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.echo.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.GET("/resolvers", s.handleListResolvers)
	v1.POST("/resolvers/:name", s.handleInvoke)
	v1.POST("/events/issue-created", s.handleIssueCreated)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": s.cfg.Service,
		"version": s.cfg.Version,
	})
}

func (s *Server) handleListResolvers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"resolvers": s.resolvers.Names()})
}

func (s *Server) handleInvoke(c echo.Context) error {
	var req invokeRequest
	if err := decodeBody(c.Request().Body, &req, true); err != nil {
		return c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body: "+err.Error()))
	}
	out, err := s.resolvers.Invoke(s.requestContext(c), c.Param("name"), req.Payload)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleIssueCreated(c echo.Context) error {
	// Jira sends far more than we read, so unknown fields are fine here.
	var req issueCreatedRequest
	if err := decodeBody(c.Request().Body, &req, false); err != nil {
		return c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body: "+err.Error()))
	}
	if req.Issue.Key == "" {
		return c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "issue.key is required"))
	}
	out, err := s.hooks.OnIssueCreated(s.requestContext(c), req.Issue)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, out)
}

func (s *Server) requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = core.WithRequestID(ctx, id)
	}
	return ctx
}

func (s *Server) writeError(c echo.Context, err error) error {
	status, upstreamStatus := statusFor(err)
	body := failure(status, err.Error())
	if upstreamStatus != 0 {
		body.HTTPStatus = upstreamStatus
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "status", status, "error", err)
	}
	return c.JSON(status, body)
}

// decodeBody accepts an empty body as the zero value. In strict mode unknown
// fields and anything after the first JSON value are rejected.
func decodeBody(body io.Reader, dst any, strict bool) error {
	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if strict {
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return errors.New("unexpected data after request body")
		}
	}
	return nil
}
