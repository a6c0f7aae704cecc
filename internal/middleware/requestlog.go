package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/crudtcc/incident-api/internal/logger"
)

// RequestLogger logs one line per request once the handler has finished.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // Let the error handler write the response so the status is final.
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            fields := []interface{}{
                "method", req.Method,
                "path", req.URL.Path,
                "status", res.Status,
                "latency_ms", time.Since(start).Milliseconds(),
                "request_id", res.Header().Get(echo.HeaderXRequestID),
                "remote_ip", c.RealIP(),
            }
            switch {
            case res.Status >= 500:
                log.Error("request", fields...)
            case res.Status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        }
    }
}
