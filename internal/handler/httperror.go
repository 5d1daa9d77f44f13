package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sqlbay/sqlbay/internal/apperr"
)

// NewHTTPErrorHandler returns the central error boundary.  Every error is
// reduced to an apperr.Error whose Kind selects the status code, and every
// response carries the envelope {error, code, message, requestId} with the
// wrapped cause chain attached only outside production.
func NewHTTPErrorHandler(log *zap.Logger, prod bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			// already classified
		case errors.As(err, &he):
			// echo's own errors: unknown route, method not allowed,
			// oversized or malformed bodies
			ae = apperr.New(kindForStatus(he.Code), codeForStatus(he.Code), fmt.Sprint(he.Message))
		default:
			ae = apperr.Internal(err)
		}

		status := ae.Kind.Status()
		if status >= http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("requestId", requestID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		payload := echo.Map{
			"error":     true,
			"code":      ae.Code,
			"message":   ae.Message,
			"requestId": requestID,
		}
		if len(ae.Details) > 0 {
			payload["details"] = ae.Details
		}
		if !prod && ae.Err != nil {
			payload["stack"] = ae.Err.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, payload)
	}
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType:
		return apperr.KindBadRequest
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	}
	return apperr.KindInternal
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType:
		return apperr.CodeValidation
	case http.StatusUnauthorized:
		return apperr.CodeUnauthorized
	case http.StatusForbidden:
		return apperr.CodeForbidden
	case http.StatusNotFound:
		return apperr.CodeNotFound
	case http.StatusConflict:
		return apperr.CodeUniqueViolation
	}
	return apperr.CodeInternal
}
