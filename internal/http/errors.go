package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/failure"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	// Raw is the unparsed model output or upstream body, when there is one.
	Raw string `json:"raw,omitempty"`
	// URL and UpstreamStatus identify the upstream request that failed.
	URL            string `json:"url,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	// Written lists the files persisted before a publish stopped.
	Written []string `json:"written,omitempty"`
}

// statusFor maps a failure kind onto an HTTP status.
func statusFor(kind failure.Kind) int {
	switch kind {
	case failure.KindValidation:
		return http.StatusBadRequest
	case failure.KindNotFound:
		return http.StatusNotFound
	case failure.KindTimeout:
		return http.StatusGatewayTimeout
	case failure.KindUpstream, failure.KindContract, failure.KindRepair, failure.KindPartialPublish:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders err. Classified failures keep their message and payload.
func errorBody(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, ErrorResponse{Error: fmt.Sprint(he.Message)}
	}

	fe, ok := failure.As(err)
	if !ok {
		if errors.Is(err, context.Canceled) {
			return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Kind: "canceled"}
		}
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"}
	}
	return statusFor(fe.Kind), ErrorResponse{
		Error:   err.Error(),
		Kind:    string(fe.Kind),
		Raw:            failure.RawOf(err),
		URL:            fe.URL,
		UpstreamStatus: fe.Status,
		Written:        fe.Written,
	}
}

// handleError is the echo error handler.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorBody(err)
	ctx := c.Request().Context()
	fields := []zap.Field{zap.Int("status", status), zap.String("kind", body.Kind), zap.Error(err)}
	if body.URL != "" {
		fields = append(fields, zap.String("url", body.URL))
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", fields...)
	} else {
		s.logger.Debug(ctx, "request rejected", fields...)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Warn(ctx, "failed to write error response", zap.Error(err))
	}
}
