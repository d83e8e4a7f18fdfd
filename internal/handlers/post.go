package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/blobstore"
	"github.com/Skotchmaster/blog_platform/internal/logging"
	"github.com/Skotchmaster/blog_platform/internal/models"
	"github.com/Skotchmaster/blog_platform/internal/mykafka"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/util"
)

type PostHandler struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	Blobs    blobstore.Store
}

func (h *PostHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "post_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

type commentResponse struct {
	ID         uint      `json:"id"`
	Post       uint      `json:"post"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsApproved bool      `json:"is_approved"`
}

func serializeComment(cm *models.Comment) commentResponse {
	return commentResponse{
		ID:         cm.ID,
		Post:       cm.PostID,
		Author:     cm.Author.Username,
		Content:    cm.Content,
		CreatedAt:  cm.CreatedAt,
		IsApproved: cm.IsApproved,
	}
}

type postResponse struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Author        string            `json:"author"`
	Image         string            `json:"image"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	ReadCount     uint              `json:"read_count"`
	Comments      []commentResponse `json:"comments,omitempty"`
	CommentsCount int64             `json:"comments_count"`
	LikesCount    int64             `json:"likes_count"`
}

func (h *PostHandler) serialize(ctx context.Context, p *models.Post, withComments bool) (*postResponse, error) {
	commentsCount, err := h.Repo.ApprovedCommentCount(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	likesCount, err := h.Repo.LikeCount(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	resp := &postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Author:        p.Author.Username,
		Image:         p.ImageURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		ReadCount:     p.ReadCount,
		CommentsCount: commentsCount,
		LikesCount:    likesCount,
	}

	if withComments {
		comments, err := h.Repo.CommentsForPost(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		resp.Comments = make([]commentResponse, 0, len(comments))
		for i := range comments {
			resp.Comments = append(resp.Comments, serializeComment(&comments[i]))
		}
	}
	return resp, nil
}

func (h *PostHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	ctx := c.Request().Context()
	posts, total, err := h.Repo.ListPosts(ctx, offset, limit)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	items := make([]*postResponse, 0, len(posts))
	for i := range posts {
		resp, err := h.serialize(ctx, &posts[i], false)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
		}
		items = append(items, resp)
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

// Get also counts the read: every retrieve bumps read_count.
func (h *PostHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	if err := h.Repo.IncrementReadCount(ctx, id); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	post, err := h.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "post not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	resp, err := h.serialize(ctx, post, true)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusOK, resp)
}

type postRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

func (h *PostHandler) Create(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors(err))
	}

	ctx := c.Request().Context()
	post := &models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: ident.UserID,
	}
	if err := h.Repo.CreatePost(ctx, post); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	h.publish(c, fmt.Sprint(post.ID), map[string]interface{}{
		"type":    "post_created",
		"post_id": post.ID,
		"author":  ident.Username,
	})

	post.Author = models.User{Username: ident.Username}
	resp, err := h.serialize(ctx, post, false)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *PostHandler) Update(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	post, err := h.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "post not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	if !canModify(ident, post.AuthorID) {
		return errorJSON(c, http.StatusForbidden, "you don't have permission")
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors(err))
	}

	post.Title = req.Title
	post.Content = req.Content
	if err := h.Repo.UpdatePost(ctx, post); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	h.publish(c, fmt.Sprint(post.ID), map[string]interface{}{
		"type":    "post_updated",
		"post_id": post.ID,
	})

	resp, err := h.serialize(ctx, post, false)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) Delete(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	post, err := h.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "post not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	if !canModify(ident, post.AuthorID) {
		return errorJSON(c, http.StatusForbidden, "you don't have permission")
	}

	if err := h.Repo.DeletePost(ctx, id); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	h.publish(c, fmt.Sprint(id), map[string]interface{}{
		"type":    "post_deleted",
		"post_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// UploadImage stores the file on the external image host and keeps only the
// returned URL.
func (h *PostHandler) UploadImage(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	post, err := h.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "post not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
	if !canModify(ident, post.AuthorID) {
		return errorJSON(c, http.StatusForbidden, "you don't have permission")
	}

	if h.Blobs == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "image storage unavailable")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "image file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "cannot read image file")
	}
	defer file.Close()

	key := fmt.Sprintf("posts/%d/%d%s", post.ID, time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))
	url, err := h.Blobs.Upload(ctx, key, fileHeader.Header.Get("Content-Type"), file, fileHeader.Size)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "image upload failed")
	}

	if err := h.Repo.SetPostImage(ctx, post.ID, url); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	return c.JSON(http.StatusOK, echo.Map{"image": url})
}

// Like flips or creates the caller's single like row for the post.
func (h *PostHandler) Like(c echo.Context) error {
	ident, err := requireIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var req struct {
		IsLike *bool `json:"is_like"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	isLike := true
	if req.IsLike != nil {
		isLike = *req.IsLike
	}

	ctx := c.Request().Context()
	if _, err := h.Repo.PostByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "post not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	if _, err := h.Repo.UpsertLike(ctx, id, ident.UserID, isLike); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "an unexpected error occurred")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Like updated"})
}
