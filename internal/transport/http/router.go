package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/handlers"
	mwauth "github.com/Skotchmaster/blog_platform/internal/middleware/auth"
	"github.com/Skotchmaster/blog_platform/internal/repo"
)

type Deps struct {
	Gate           *mwauth.Gate
	Repo           *repo.GormRepo
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserAdminHandler
	PostHandler    *handlers.PostHandler
	CommentHandler *handlers.CommentHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// The gate runs on everything under /api; it only attaches identity.
	// Whether anonymous is acceptable is a per-route capability decision.
	api := e.Group("/api", d.Gate.Authenticate)

	notBlocked := mwauth.IsNotBlocked(d.Repo)

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/token/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout, mwauth.Require(mwauth.IsAuthenticated))
	auth.GET("/me", d.AuthHandler.Me, mwauth.Require(mwauth.IsAuthenticated))

	users := auth.Group("/users", mwauth.Require(mwauth.IsAdmin))
	users.GET("", d.UserHandler.List)
	users.POST("", d.UserHandler.Create)
	users.GET("/:id", d.UserHandler.Get)
	users.PUT("/:id", d.UserHandler.Update)
	users.DELETE("/:id", d.UserHandler.Delete)

	posts := api.Group("/posts")
	posts.GET("", d.PostHandler.List)
	posts.POST("", d.PostHandler.Create, mwauth.Require(mwauth.IsAuthenticated, notBlocked))

	// comment routes before /:id so "comments" never parses as a post id
	posts.GET("/comments", d.CommentHandler.List)
	posts.GET("/comments/:id", d.CommentHandler.Get)
	posts.POST("/comments", d.CommentHandler.Create, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
	posts.PUT("/comments/:id", d.CommentHandler.Update, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
	posts.DELETE("/comments/:id", d.CommentHandler.Delete, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
	posts.POST("/comments/:id/approve", d.CommentHandler.Approve, mwauth.Require(mwauth.IsAdmin))

	posts.GET("/:id", d.PostHandler.Get)
	posts.PUT("/:id", d.PostHandler.Update, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
	posts.DELETE("/:id", d.PostHandler.Delete, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
	posts.POST("/:id/image", d.PostHandler.UploadImage, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
	posts.POST("/:id/like", d.PostHandler.Like, mwauth.Require(mwauth.IsAuthenticated, notBlocked))
}
