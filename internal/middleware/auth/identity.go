package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/tokens"
)

const identityKey = "identity"

// Identity is what a validated access token asserts about the caller.
// IsBlocked is a snapshot from mint time; routes that must honor blocks
// issued after minting go through the IsNotBlocked capability instead.
type Identity struct {
	UserID      uint
	Username    string
	Email       string
	IsStaff     bool
	IsSuperuser bool
	IsBlocked   bool
}

func identityFromClaims(claims *tokens.AccessClaims) (*Identity, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:      id,
		Username:    claims.Username,
		Email:       claims.Email,
		IsStaff:     claims.IsStaff,
		IsSuperuser: claims.IsSuperuser,
		IsBlocked:   claims.IsBlocked,
	}, nil
}

func setIdentity(c echo.Context, ident *Identity) {
	c.Set(identityKey, ident)
}

// CurrentIdentity returns nil for anonymous requests.
func CurrentIdentity(c echo.Context) *Identity {
	if v := c.Get(identityKey); v != nil {
		if ident, ok := v.(*Identity); ok {
			return ident
		}
	}
	return nil
}
