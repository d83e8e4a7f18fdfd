package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/hash"
	"github.com/Skotchmaster/blog_platform/internal/models"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/util"
)

// UserAdminHandler is staff-only account management, including blocking.
type UserAdminHandler struct {
	Repo *repo.GormRepo
}

func (h *UserAdminHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	users, total, err := h.Repo.ListUsers(c.Request().Context(), offset, limit)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

type createUserRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=150"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
	IsStaff        bool   `json:"is_staff"`
	IsBlocked      bool   `json:"is_blocked"`
}

func (h *UserAdminHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors(err))
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   pwHash,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		IsStaff:        req.IsStaff,
		IsBlocked:      req.IsBlocked,
	}
	if err := h.Repo.CreateUser(c.Request().Context(), user); err != nil {
		switch {
		case errors.Is(err, repo.ErrUsernameTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"username": "a user with that username already exists"})
		case errors.Is(err, repo.ErrEmailTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"email": "a user with that email already exists"})
		default:
			return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
		}
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *UserAdminHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	user, err := h.Repo.UserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return errorJSON(c, http.StatusNotFound, "user not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
	IsBlocked      *bool   `json:"is_blocked"`
	IsStaff        *bool   `json:"is_staff"`
}

// Update mutates only the fields named in updateUserRequest. Unknown fields
// in the body are rejected outright rather than silently dropped.
func (h *UserAdminHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var req updateUserRequest
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body: "+err.Error())
	}

	upd := repo.UserUpdate{
		Username:       req.Username,
		Email:          req.Email,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		IsBlocked:      req.IsBlocked,
		IsStaff:        req.IsStaff,
	}
	if req.Password != nil {
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
		}
		upd.PasswordHash = &pwHash
	}

	user, err := h.Repo.UpdateUser(c.Request().Context(), id, upd)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return errorJSON(c, http.StatusNotFound, "user not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserAdminHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.Repo.DeleteUser(c.Request().Context(), id); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return errorJSON(c, http.StatusNotFound, "user not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.NoContent(http.StatusNoContent)
}
