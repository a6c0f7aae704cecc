package handler // handler defines http handlers

import (
    "context"  // context bounds the database work of a request
    "errors"   // errors matches repository sentinels
    "net/http" // http provides status code constants
    "strconv"  // strconv parses path identifiers
    "time"     // time holds the query timeout

    "github.com/labstack/echo/v4"

    "github.com/crudtcc/incident-api/internal/logger"
    "github.com/crudtcc/incident-api/internal/queue"
    "github.com/crudtcc/incident-api/internal/repository"
    "github.com/crudtcc/incident-api/internal/service"
)

// Entity names used in change events and cache prefixes.  They match the
// route segments.
const (
    EntityUsers           = "usuarios"
    EntityRooms           = "salas"
    EntityIncidents       = "incidentes"
    EntityDevices         = "dispositivos"
    EntityIncidentDevices = "incidentes_dispositivos"
)

// Deps carries what every handler needs besides its repositories.
type Deps struct {
    Log          *logger.Logger    // Log records every failure that becomes a 500
    Publisher    service.Publisher // Publisher announces successful writes
    QueryTimeout time.Duration     // QueryTimeout bounds the database work of one request; zero disables it
}

func (d Deps) withDefaults() Deps {
    if d.Log == nil {
        d.Log = logger.Nop()
    }
    if d.Publisher == nil {
        d.Publisher = service.NopPublisher{}
    }
    return d
}

// dbContext derives the context a handler runs its queries under.
func (d Deps) dbContext(c echo.Context) (context.Context, context.CancelFunc) {
    if d.QueryTimeout <= 0 {
        return context.WithCancel(c.Request().Context())
    }
    return context.WithTimeout(c.Request().Context(), d.QueryTimeout)
}

// fail is the error boundary of every handler: not found becomes a 404, any
// other error is logged and hidden behind a generic 500.
func (d Deps) fail(c echo.Context, err error, notFound, op string) error {
    if errors.Is(err, repository.ErrNotFound) {
        return c.String(http.StatusNotFound, notFound)
    }
    d.Log.Error(op+" failed",
        "error", err,
        "method", c.Request().Method,
        "path", c.Request().URL.Path,
        "request_id", c.Response().Header().Get(echo.HeaderXRequestID),
    )
    return c.String(http.StatusInternalServerError, "internal server error")
}

// emit publishes a change event.  The write already succeeded, so a broker
// failure is only logged.
func (d Deps) emit(c echo.Context, entity, action string, id int64) {
    ev := queue.NewEntityEvent(entity, action, id)
    if err := d.Publisher.Publish(c.Request().Context(), ev); err != nil {
        d.Log.Warn("publish change event failed", "entity", entity, "action", action, "id", id, "error", err)
    }
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (int64, bool) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return 0, false
    }
    return id, true
}

// firstQuery returns the first non-empty query parameter among names.
func firstQuery(c echo.Context, names ...string) string {
    for _, n := range names {
        if v := c.QueryParam(n); v != "" {
            return v
        }
    }
    return ""
}

type deleted struct {
    ID      int64  `json:"id"`
    Message string `json:"message"`
}
