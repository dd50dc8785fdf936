package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ngo-portal/internal/domain"
)

// RespondError writes err as {"error": msg} with the status the domain
// taxonomy assigns it. 401 responses carry a Bearer challenge. Unexpected
// errors are logged and reported without their cause.
func RespondError(c echo.Context, err error) error {
	status := domain.StatusCode(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": domain.Message(err)})
}

// HTTPErrorHandler renders errors that escape handlers (echo's own 404/405,
// binder failures) in the same {"error": msg} shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = c.JSON(he.Code, echo.Map{"error": msg})
		return
	}
	_ = RespondError(c, err)
}
