package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/blog_platform/internal/middleware/auth"
)

var validate = validator.New()

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id), err
}

// fieldErrors flattens validator output into {field: message} for 400 bodies.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["detail"] = "invalid request body"
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "this field is required"
		case "email":
			out[field] = "enter a valid email address"
		case "min":
			out[field] = "must be at least " + fe.Param() + " characters"
		case "max":
			out[field] = "must be at most " + fe.Param() + " characters"
		default:
			out[field] = "invalid value"
		}
	}
	return out
}

func canModify(ident *mwauth.Identity, authorID uint) bool {
	if ident == nil {
		return false
	}
	return ident.IsStaff || ident.UserID == authorID
}

func requireIdentity(c echo.Context) (*mwauth.Identity, error) {
	ident := mwauth.CurrentIdentity(c)
	if ident == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return ident, nil
}
