package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) (int, response) {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return StatusCode(errx.Code), response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return http.StatusInternalServerError, response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

var statusCodes = map[errorx.Code]int{
	errorx.NotFound:         http.StatusNotFound,
	errorx.PermissionDenied: http.StatusForbidden,
	errorx.Unauthenticated:  http.StatusUnauthorized,
	errorx.TooManyRequests:  http.StatusTooManyRequests,
	errorx.NotImplemented:   http.StatusNotImplemented,
}

// StatusCode maps an error code to the HTTP status code of the response.
func StatusCode(code errorx.Code) int {
	if status, ok := statusCodes[code]; ok {
		return status
	}

	switch code.Kind() {
	case errorx.KindValidation:
		return http.StatusBadRequest
	case errorx.KindConflict:
		return http.StatusConflict
	case errorx.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleResponse() CloserFunc {
	return func(ctx context.Context) {
		c := ginContext(ctx)
		if c == nil || c.Writer.Written() {
			return
		}

		if err := xcontext.Error(ctx); err != nil {
			c.JSON(newErrorResponse(err))
			return
		}

		c.JSON(http.StatusOK, newResponse(xcontext.GetResponse(ctx)))
	}
}
