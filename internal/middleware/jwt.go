package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/ngo-portal/internal/policy"
)

// userKey is the echo context key under which the authenticated user lives.
const userKey = "user"

// JWTAuth returns an Echo middleware that resolves a Bearer access token to
// its user and stores the user in the request context. Handlers read it back
// with CurrentUser. A missing, invalid or expired token answers 401, as does
// a token whose user no longer exists.
func JWTAuth(tokens policy.TokenVerifier, users policy.UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			u, err := policy.CurrentUser(c.Request().Context(), tokens, users, raw)
			if err != nil {
				return RespondError(c, err)
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
