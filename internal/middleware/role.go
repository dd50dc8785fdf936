package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/policy"
)

// RequireActive aborts with 400 when the authenticated user is deactivated.
// It assumes JWTAuth ran earlier in the chain.
func RequireActive() echo.MiddlewareFunc {
	return requireCheck(policy.RequireActive)
}

// RequireAdmin aborts with 403 unless the authenticated user is an active
// admin. It assumes JWTAuth ran earlier in the chain.
func RequireAdmin() echo.MiddlewareFunc {
	return requireCheck(policy.RequireAdmin)
}

func requireCheck(check func(*model.User) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := check(CurrentUser(c)); err != nil {
				return RespondError(c, err)
			}
			return next(c)
		}
	}
}
