package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/content"
	"github.com/octobees/hero-savings/api/internal/crm"
	"github.com/octobees/hero-savings/api/internal/handler"
	"github.com/octobees/hero-savings/api/internal/leadsync"
	middlewarepkg "github.com/octobees/hero-savings/api/internal/middleware"
	"github.com/octobees/hero-savings/api/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	generator, err := content.NewGenerator(ctx, cfg.Gemini, logger.Named("content"))
	if err != nil {
		logger.Warn("content generator unavailable, using template content", zap.Error(err))
		generator = content.Fallback{}
	}

	crmClient := crm.NewClient(cfg.CRM.APIKey, cfg.CRM.LocationID,
		crm.WithBaseURL(cfg.CRM.BaseURL),
		crm.WithAPIVersion(cfg.CRM.APIVersion),
		crm.WithHTTPClient(&http.Client{Timeout: cfg.CRM.Timeout}),
		crm.WithRateLimit(cfg.CRM.RequestsPerSec),
	)
	if !cfg.CRM.Enabled() {
		logger.Warn("HIGHLEVEL_API_KEY or HIGHLEVEL_LOCATION_ID missing, crm sync disabled")
	} else {
		logger.Info("crm sync enabled",
			zap.Bool("email", cfg.CRM.EmailEnabled()),
			zap.Bool("sms", cfg.CRM.SMSEnabled()))
	}
	syncer := leadsync.NewSyncer(crmClient, cfg.CRM, logger.Named("leadsync"))
	leadHandler := handler.NewLeadHandler(generator, syncer, logger.Named("handler"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger.Named("http")))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, router.Handlers{Leads: leadHandler})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := leadHandler.Wait(shutdownCtx); err != nil {
		logger.Error("crm syncs still running at shutdown", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
