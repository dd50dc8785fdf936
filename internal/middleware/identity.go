package middleware

// identity.go defines helper functions shared across middleware files and
// handlers. They read the user stored by JWTAuth; when no token was checked
// the caller is anonymous.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ngo-portal/internal/model"
)

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// userID returns the username of the caller, or "guest" when no user is
// authenticated.
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil && u.Username != "" {
		return u.Username
	}
	return "guest"
}
