// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-search/internal/handler"
	"github.com/iliyamo/event-search/internal/middleware"
)

// RegisterRoutes registers routes that need no middleware at all. Currently
// it exposes only a health check for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterSearch registers the public search endpoints. All of them serve
// anonymous callers; a valid bearer token only adds bookmark annotation, so
// identity resolution is optional and never rejects.
func RegisterSearch(e *echo.Echo, h *handler.SearchHandler, m *handler.MetadataHandler, jwtSecret string, rl echo.MiddlewareFunc) {
	g := e.Group("/v1", rl, middleware.OptionalJWT(jwtSecret))
	g.GET("/search", h.Search)
	g.GET("/search/events-by-category", h.EventsByCategory)
	g.GET("/search/events/this-week", h.ThisWeek)
	g.GET("/search/events/this-month", h.ThisMonth)
	g.GET("/search/metadata", m.Metadata)
	g.GET("/events/:id/related", h.Related)
}

// RegisterAdmin registers the operator endpoints behind strict JWT auth and
// an ADMIN role requirement.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))
	g.POST("/sync", a.TriggerSync)
}
