package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ngo-portal/internal/handler"
	"github.com/iliyamo/ngo-portal/internal/middleware"
)

// RegisterEvents registers one event collection under prefix. Reads are
// public; create needs an active user and update/delete are further checked
// for ownership inside the handler.
func RegisterEvents(e *echo.Echo, prefix string, h *handler.EventHandler, auth echo.MiddlewareFunc, cache []echo.MiddlewareFunc) {
	g := e.Group(prefix, cache...)
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	active := []echo.MiddlewareFunc{auth, middleware.RequireActive()}
	g.POST("", h.Create, active...)
	g.PUT("/:id", h.Update, active...)
	g.DELETE("/:id", h.Delete, active...)
}

// RegisterMembers registers the team directory. Writes are admin-only.
func RegisterMembers(e *echo.Echo, h *handler.MemberHandler, auth echo.MiddlewareFunc, cache []echo.MiddlewareFunc) {
	g := e.Group("/api/members", cache...)
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	admin := []echo.MiddlewareFunc{auth, middleware.RequireAdmin()}
	g.POST("", h.Create, admin...)
	g.POST("/with-image", h.CreateWithImage, admin...)
	g.PUT("/:id", h.Update, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}
