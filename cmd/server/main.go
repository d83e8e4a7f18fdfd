package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_platform/internal/blobstore"
	"github.com/Skotchmaster/blog_platform/internal/cache"
	"github.com/Skotchmaster/blog_platform/internal/config"
	"github.com/Skotchmaster/blog_platform/internal/handlers"
	"github.com/Skotchmaster/blog_platform/internal/logging"
	mwauth "github.com/Skotchmaster/blog_platform/internal/middleware/auth"
	"github.com/Skotchmaster/blog_platform/internal/mykafka"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/revocation"
	"github.com/Skotchmaster/blog_platform/internal/service"
	"github.com/Skotchmaster/blog_platform/internal/tokens"
	httpserver "github.com/Skotchmaster/blog_platform/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var kv revocation.KV
	if cfg.RedisAddr != "" {
		rds := cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, logger)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rds.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer rds.Close()
		kv = rds
	} else {
		logger.Warn("REDIS_ADDR not set, revocations will not survive restarts or be shared between instances")
		kv = revocation.NewMemoryKV()
	}

	codec := &tokens.Codec{
		AccessSecret:  []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}

	var producer *mykafka.Producer
	if cfg.KafkaAddress != "" {
		producer = mykafka.NewProducer(strings.Split(cfg.KafkaAddress, ","))
		defer producer.Close()
	}

	var blobs blobstore.Store
	if cfg.S3Endpoint != "" {
		s3, err := blobstore.NewS3(blobstore.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Fatalf("blobstore init error: %v", err)
		}
		blobs = s3
	}

	gormRepo := repo.New(db)
	authSvc := &service.AuthService{
		Repo:    gormRepo,
		Codec:   codec,
		Revoked: revocation.NewStore(kv, ""),
	}

	httpserver.Register(e, &httpserver.Deps{
		Gate: mwauth.NewGate(codec),
		Repo: gormRepo,
		AuthHandler: &handlers.AuthHandler{
			Svc:          authSvc,
			Producer:     producer,
			CookieSecure: cfg.CookieSecure,
		},
		UserHandler:    &handlers.UserAdminHandler{Repo: gormRepo},
		PostHandler:    &handlers.PostHandler{Repo: gormRepo, Producer: producer, Blobs: blobs},
		CommentHandler: &handlers.CommentHandler{Repo: gormRepo, Producer: producer},
	})

	go func() {
		if err := e.Start(cfg.AppPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
