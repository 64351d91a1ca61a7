package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-management/internal/core/domain"
)

// RBAC enforces role-based access control over the resolved Principal. A
// request passes when the principal's role is in the allowed set or outranks
// one of its members, so granting "manager" implicitly grants "admin".
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedDetail)
			}
			if !Authorized(principal, allowedRoles...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Authorized is the pure access-policy decision: allow when the principal's
// role equals or outranks any of the required roles.
func Authorized(principal domain.Principal, requiredRoles ...domain.Role) bool {
	for _, r := range requiredRoles {
		if principal.Role == r || principal.Role.Outranks(r) {
			return true
		}
	}
	return false
}
