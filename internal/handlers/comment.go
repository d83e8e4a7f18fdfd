package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/logging"
	"github.com/Skotchmaster/blog_platform/internal/models"
	"github.com/Skotchmaster/blog_platform/internal/mykafka"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/util"
)

type CommentHandler struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func (h *CommentHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "post_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *CommentHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	comments, total, err := h.Repo.ListComments(c.Request().Context(), offset, limit)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	items := make([]commentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, serializeComment(&comments[i]))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *CommentHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	comment, err := h.Repo.CommentByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "comment not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusOK, serializeComment(comment))
}

type commentRequest struct {
	Post    uint   `json:"post" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// New comments start unapproved; only approved ones count on the post.
func (h *CommentHandler) Create(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors(err))
	}

	ctx := c.Request().Context()
	if _, err := h.Repo.PostByID(ctx, req.Post); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "post not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	comment := &models.Comment{
		PostID:   req.Post,
		AuthorID: ident.UserID,
		Content:  req.Content,
	}
	if err := h.Repo.CreateComment(ctx, comment); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	comment.Author = models.User{Username: ident.Username}
	return c.JSON(http.StatusCreated, serializeComment(comment))
}

func (h *CommentHandler) Update(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	comment, err := h.Repo.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "comment not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	if !canModify(ident, comment.AuthorID) {
		return errorJSON(c, http.StatusForbidden, "you don't have permission")
	}

	var req struct {
		Content string `json:"content" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors(err))
	}

	comment.Content = req.Content
	if err := h.Repo.UpdateComment(ctx, comment); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusOK, serializeComment(comment))
}

func (h *CommentHandler) Delete(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	comment, err := h.Repo.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "comment not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	if !canModify(ident, comment.AuthorID) {
		return errorJSON(c, http.StatusForbidden, "you don't have permission")
	}

	if err := h.Repo.DeleteComment(ctx, id); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.NoContent(http.StatusNoContent)
}

// Approve is the staff moderation toggle.
func (h *CommentHandler) Approve(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var req struct {
		IsApproved bool `json:"is_approved"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.Repo.SetCommentApproval(c.Request().Context(), id, req.IsApproved); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "comment not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	h.publish(c, fmt.Sprint(id), map[string]interface{}{
		"type":        "comment_approved",
		"comment_id":  id,
		"is_approved": req.IsApproved,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Comment approval updated"})
}
