package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/repo"
)

// Capability is a per-route predicate gating access beyond authentication.
// Routes declare an ordered list; the first deny wins.
type Capability func(c echo.Context, ident *Identity) error

// Require evaluates capabilities in order after the gate has run.
func Require(caps ...Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := CurrentIdentity(c)
			for _, cap := range caps {
				if err := cap(c, ident); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

func IsAuthenticated(_ echo.Context, ident *Identity) error {
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return nil
}

func IsAdmin(_ echo.Context, ident *Identity) error {
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if !ident.IsStaff {
		return echo.NewHTTPError(http.StatusForbidden, "you don't have permission")
	}
	return nil
}

// IsNotBlocked requeries the user's current blocked status instead of
// trusting the token claim, so blocks issued after token mint take effect
// immediately on protected routes.
func IsNotBlocked(r *repo.GormRepo) Capability {
	return func(c echo.Context, ident *Identity) error {
		if ident == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		user, err := r.UserByID(c.Request().Context(), ident.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if user.IsBlocked {
			return echo.NewHTTPError(http.StatusForbidden, "account blocked")
		}
		return nil
	}
}
