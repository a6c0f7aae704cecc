package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/crudtcc/incident-api/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers the operational endpoints.  /healthz is used by
// load balancers and monitoring systems and pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterUsers maps the /usuarios routes onto the user aggregate handler.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler) {
	g := e.Group("/" + handler.EntityUsers)
	g.GET("", u.List)
	g.GET("/:id", u.Get)
	g.POST("", u.Create)
	g.PUT("/:id", u.Update)
	g.DELETE("/:id", u.Delete)
}

// crud is implemented by every *handler.Resource.
type crud interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
}

func registerResource(e *echo.Echo, entity string, h crud) {
	g := e.Group("/" + entity)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterFacilities maps rooms, incidents, devices and incident-device
// links.
func RegisterFacilities(e *echo.Echo, f *handler.FacilityHandler) {
	registerResource(e, handler.EntityRooms, f.Rooms)
	registerResource(e, handler.EntityIncidents, f.Incidents)
	registerResource(e, handler.EntityDevices, f.Devices)
	registerResource(e, handler.EntityIncidentDevices, f.IncidentDevices)
}
