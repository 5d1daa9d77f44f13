package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLog logs one line per request with the correlation id, so log
// entries can be matched to the X-Request-Id echoed in responses.
// Register it after echo's RequestID middleware.
func RequestLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()
			if err = next(c); err != nil {
				// Let the error handler write the response first so the
				// logged status is the one actually sent.  The committed
				// check in the error handler prevents a second write.
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("requestId", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}

			level := zapcore.InfoLevel
			switch {
			case status >= 500:
				level = zapcore.ErrorLevel
			case status >= 400:
				level = zapcore.WarnLevel
			}
			log.Log(level, "request", fields...)
			return err
		}
	}
}
