package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/kantomap/cmd/survey/api"
	"github.com/manzanit0/kantomap/pkg/env"
	"github.com/manzanit0/kantomap/pkg/geocode"
	"github.com/manzanit0/kantomap/pkg/location"
	"github.com/manzanit0/kantomap/pkg/logger"
	"github.com/manzanit0/kantomap/pkg/middleware"
	"github.com/manzanit0/kantomap/pkg/survey"
	"github.com/manzanit0/kantomap/pkg/whttp"
)

const ServiceName = "survey"

func init() {
	logger.InitGlobalSlog(ServiceName)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop); err != nil {
		slog.Error("survey shutdown abruptly", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("server exited")
}

func run(ctx context.Context, stop context.CancelFunc) error {
	cfg, err := env.Load(os.Getenv("CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := location.Open(ctx, cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open location store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("close location store", "error", err.Error())
		}
	}()

	resolver, err := geocode.NewResolverFromConfig(cfg.Providers, whttp.NewLoggingClient())
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	slog.Info("geocoding providers configured", "providers", resolver.Providers())

	if cfg.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD is not set, admin reset is disabled")
	}

	svc := survey.NewService(resolver, store, cfg.CountryQualifier, cfg.AdminPassword)

	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(false))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api.NewSurveyController(svc).Register(r)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: r}
	go func() {
		slog.Info(fmt.Sprintf("serving HTTP on :%s", cfg.Port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server shutdown abruptly", "error", err.Error())
		} else {
			slog.Info("server shutdown gracefully")
		}

		stop()
	}()

	// Listen for OS interrupt
	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
