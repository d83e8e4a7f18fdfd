package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/logging"
	"github.com/Skotchmaster/blog_platform/internal/mykafka"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/service"
	"github.com/Skotchmaster/blog_platform/internal/tokens"
)

type AuthHandler struct {
	Svc          *service.AuthService
	Producer     *mykafka.Producer
	CookieSecure bool
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) setSessionCookies(c echo.Context, s *service.Session) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, s.AccessToken, "/", s.AccessExp, h.CookieSecure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, s.RefreshToken, "/", s.RefreshExp, h.CookieSecure))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.CookieSecure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.CookieSecure))
}

type registerRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=150"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors(err))
	}

	user, err := h.Svc.Register(c.Request().Context(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrUsernameTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"username": "a user with that username already exists"})
		case errors.Is(err, repo.ErrEmailTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"email": "a user with that email already exists"})
		default:
			return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
		}
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}

	session, err := h.Svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlocked):
			return errorJSON(c, http.StatusUnauthorized, "account blocked")
		case errors.Is(err, service.ErrInvalidCredentials):
			return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
		default:
			return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
		}
	}

	h.setSessionCookies(c, session)

	h.publish(c, fmt.Sprint(session.User.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  session.User.ID,
		"username": session.User.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user":    session.User,
		"message": "Login successful",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || cookie.Value == "" {
		return errorJSON(c, http.StatusUnauthorized, "no refresh token found in cookies")
	}

	session, err := h.Svc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) || errors.Is(err, service.ErrMissingRefreshToken) {
			return errorJSON(c, http.StatusUnauthorized, "token refresh failed")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	h.setSessionCookies(c, session)
	return c.JSON(http.StatusOK, echo.Map{"message": "token refreshed"})
}

// Logout clears both cookies no matter what: logging out without a session
// or with a dead store is still a successful logout for the client.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := ""
	if cookie, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = cookie.Value
	}

	if err := h.Svc.Logout(c.Request().Context(), raw); err != nil {
		logging.FromContext(c.Request().Context()).Error("logout blacklist failed", "error", err)
	}

	h.clearSessionCookies(c)
	return c.JSON(http.StatusResetContent, echo.Map{"message": "Logout successful"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":           ident.UserID,
		"username":     ident.Username,
		"email":        ident.Email,
		"is_staff":     ident.IsStaff,
		"is_superuser": ident.IsSuperuser,
	})
}
