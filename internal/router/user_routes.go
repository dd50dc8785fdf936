package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ngo-portal/internal/handler"
	"github.com/iliyamo/ngo-portal/internal/middleware"
)

// RegisterUsers registers /api/users. Registration is public; everything
// else needs a valid token.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, auth echo.MiddlewareFunc) {
	e.POST("/api/users/register", h.Register)

	g := e.Group("/api/users", auth)
	g.GET("", h.List)
	g.GET("/me", h.Me)
	g.PUT("/me", h.UpdateMe)
}

// RegisterAdmin registers /api/admin. seed-admin is public but succeeds only
// while no admin exists; every other route requires an active admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, auth echo.MiddlewareFunc) {
	e.POST("/api/admin/seed-admin", h.SeedAdmin)

	g := e.Group("/api/admin", auth, middleware.RequireAdmin())
	g.POST("/create", h.Create)
	g.GET("/list", h.List)
	g.PUT("/update/:id", h.Update)
	g.DELETE("/delete/:id", h.Delete)
}

// RegisterDonations registers the read-only donation views.
func RegisterDonations(e *echo.Echo, h *handler.DonationHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/api/donations", auth)
	g.GET("", h.List, middleware.RequireAdmin())
	g.GET("/mine", h.Mine)
}
