package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hmgdev/hmg-index/internal/alert"
	"github.com/hmgdev/hmg-index/internal/app"
	"github.com/hmgdev/hmg-index/internal/keywords"
	"github.com/hmgdev/hmg-index/internal/resolver"
	"github.com/hmgdev/hmg-index/internal/upstream"
)

// ErrorResponse is the failure envelope. HTTPStatus carries the upstream
// status when an upstream call failed, otherwise the response status.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus"`
}

func failure(status int, message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, HTTPStatus: status}
}

// statusFor maps err to the response status and, for upstream failures,
// the status the upstream answered with.
func statusFor(err error) (status int, upstreamStatus int) {
	var payloadErr *resolver.PayloadError
	var httpErr *upstream.HTTPError
	switch {
	case errors.As(err, &payloadErr):
		return http.StatusBadRequest, 0
	case errors.Is(err, resolver.ErrUnknownResolver):
		return http.StatusNotFound, 0
	case errors.Is(err, app.ErrAtlassianNotConfigured),
		errors.Is(err, keywords.ErrNotConfigured),
		errors.Is(err, alert.ErrQueueFull):
		return http.StatusServiceUnavailable, 0
	case errors.As(err, &httpErr):
		return http.StatusBadGateway, httpErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, 0
	default:
		return http.StatusInternalServerError, 0
	}
}
