package handler // declare the package name; contains HTTP handlers

import (
    "context"  // context bounds the database ping
    "net/http" // net/http provides status codes and response helpers
    "time"     // time sets the ping deadline

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *database.DB.
type Pinger interface {
    HealthCheck(ctx context.Context) error
}

// Health is a health-check endpoint used by load balancers and monitoring
// systems.  It answers "ok" when the database answers a ping within two
// seconds and 503 otherwise.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.HealthCheck(ctx); err != nil {
            return c.String(http.StatusServiceUnavailable, "database unavailable")
        }
        return c.String(http.StatusOK, "ok") // String writes plain text
    }
}
