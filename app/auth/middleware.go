package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

// ContextKeyUsername is where the middleware stores the authenticated
// username on the request context.
const ContextKeyUsername = "username"

// Middleware rejects requests without a valid Bearer token and exposes
// the token's subject to downstream handlers via the echo context.
func Middleware(manager *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "missing or malformed authorization header"})
			}

			username, err := manager.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid or expired token"})
			}

			c.Set(ContextKeyUsername, username)
			return next(c)
		}
	}
}

// UsernameFromContext returns the authenticated username set by
// Middleware, or an empty string on an unauthenticated request.
func UsernameFromContext(c echo.Context) string {
	username, _ := c.Get(ContextKeyUsername).(string)
	return username
}
