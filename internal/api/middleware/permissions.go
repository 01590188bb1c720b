package middleware

import (
	"net/http"

	"ahgapi/internal/models"

	"github.com/labstack/echo/v4"
)

// Roles ranked from least to most privileged.
var roleRank = map[string]int{
	string(models.UserRoleResearcher): 1,
	string(models.UserRoleEditor):     2,
	string(models.UserRoleAdmin):      3,
}

// RequireRole admits users whose role is at least the given one.
func RequireRole(minimum models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := GetUserRole(c)
			if roleRank[role] < roleRank[string(minimum)] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireAdmin is shorthand for the register-management surfaces.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.UserRoleAdmin)
}

// RequireEditor covers description-editing surfaces.
func RequireEditor() echo.MiddlewareFunc {
	return RequireRole(models.UserRoleEditor)
}
