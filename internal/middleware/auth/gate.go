package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/tokens"
)

type Gate struct {
	Codec *tokens.Codec
}

func NewGate(codec *tokens.Codec) *Gate {
	return &Gate{Codec: codec}
}

// Authenticate attaches an identity when a valid access token is presented,
// via the Authorization header first, then the access_token cookie. A
// missing, expired, malformed or badly signed token demotes the request to
// anonymous instead of erroring; route-level capabilities decide whether
// anonymous is acceptable.
func (g *Gate) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			cookie, err := c.Cookie(tokens.AccessCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			raw = cookie.Value
		}

		claims, err := g.Codec.ParseAccess(raw)
		if err != nil {
			return next(c)
		}

		ident, err := identityFromClaims(claims)
		if err != nil {
			return next(c)
		}

		setIdentity(c, ident)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
