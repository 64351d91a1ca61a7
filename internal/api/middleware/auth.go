package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-management/internal/core/domain"
	"github.com/userhub/user-management/internal/core/ports"
)

// principalKey is the echo context key the resolved Principal is stored under.
const principalKey = "principal"

// unauthorizedDetail is the stable 401 body. Every resolution failure uses the
// same message so callers learn nothing about which check failed.
const unauthorizedDetail = "Could not validate credentials"

// Auth resolves the bearer token into a Principal and injects it into the
// request context. Any failure (missing header, bad scheme, expired or
// tampered token, missing claims) is a uniform 401.
func Auth(codec ports.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedDetail)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedDetail)
			}

			principal, err := codec.Decode(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedDetail)
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom extracts the Principal the Auth middleware stored. The second
// return is false when the middleware did not run on this route.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}
