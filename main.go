package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/handler"
	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/pkg/tracing"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded successfully", "path", configPath)

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	db, err := service.OpenDatabase(&cfg.Database)
	if err != nil {
		return err
	}

	var locker service.Locker = service.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb, err := service.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = service.NewRedisLocker(rdb)
		slog.Info("using redis contract locks", "addr", cfg.Redis.Addr)
	}

	var archive service.DocumentArchive
	if cfg.Minio.Enabled() {
		minioArchive, err := service.NewMinioArchive(&cfg.Minio)
		if err != nil {
			return err
		}
		if err := minioArchive.EnsureBucket(ctx); err != nil {
			return err
		}
		archive = minioArchive
	} else {
		slog.Warn("minio not configured, shared documents will not be archived")
	}

	mailer, err := service.NewMailer(&cfg.SendGrid)
	if err != nil {
		return err
	}

	store := service.NewContractStore(db)
	users := service.NewUserStore(db)
	versions := service.NewVersionService(store, locker)
	contracts := service.NewContractService(store, users, versions)
	exporter := service.NewPDFExporter(store, users, service.NewPDFRenderer(&cfg.PDF))
	sharing := service.NewSharingService(store, users, exporter, mailer, archive, service.SharingOptions{
		BaseURL:          cfg.App.BaseURL,
		ShareExpiresDays: cfg.Contracts.ShareExpiresDays,
	})
	engine := service.NewTransitionEngine(store, locker, sharing, cfg.Contracts.ExecutionPolicy)

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(cfg, users),
		Contracts: handler.NewContractHandler(contracts, engine, sharing),
		Versions:  handler.NewVersionHandler(versions),
		Shares:    handler.NewShareHandler(sharing),
		Documents: handler.NewDocumentHandler(exporter, archive),
	}
	if cfg.OAuth.ClientID != "" {
		handlers.OAuth = handler.NewOAuthHandler(service.NewOAuthService(&cfg.OAuth, users), cfg)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	router.Use(middleware.NoStore())
	router.Use(middleware.RateLimit(float64(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	handlers.Register(router, middleware.AuthMiddleware(&cfg.Auth))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
