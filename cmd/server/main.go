// Package main provides the blood sugar LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/bot"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/config"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/dialogue"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/metrics"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/modules/sugar"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/r2client"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/report"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/sentry"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/storage"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting blood sugar LINE bot server")

	// Initialize Sentry (no-op without a token)
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", db.Path()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()

	// Register Go and process collectors
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	// Create metrics
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Record store operation outcomes
	db.SetMetrics(m)

	// Conversation state store
	states := dialogue.NewStore(cfg.StateTTL)
	log.WithField("state_ttl", cfg.StateTTL).Info("Conversation state store created")

	// Object storage for report charts (optional)
	var chartClient *r2client.Client
	if cfg.UploadsConfigured() {
		chartClient, err = r2client.New(context.Background(), r2client.Config{
			Endpoint:      cfg.R2Endpoint,
			AccessKeyID:   cfg.R2AccessKeyID,
			SecretKey:     cfg.R2SecretKey,
			BucketName:    cfg.R2Bucket,
			PublicBaseURL: cfg.R2PublicBaseURL,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create chart storage client")
		}
		log.WithField("bucket", cfg.R2Bucket).Info("Chart storage client created")
	} else {
		log.Info("Chart storage not configured, report requests will be rejected")
	}

	// Report service
	var uploader report.Uploader
	if chartClient != nil {
		uploader = chartClient
	}
	reports := report.NewService(db, uploader, log)
	reports.SetMetrics(m)

	// Bot modules and dispatch
	botRegistry := bot.NewRegistry()
	botRegistry.Register(sugar.NewHandler(db, states, reports, log, cfg.VoiceLiffURL))

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registry:            botRegistry,
		Logger:              log,
		WebhookTimeout:      cfg.WebhookTimeout,
		MaxPostbackDataSize: cfg.Bot.MaxPostbackDataSize,
	})

	// Create webhook handler
	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
		Processor:     processor,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create webhook handler")
	}
	log.Info("Webhook handler created")

	// Startup connectivity probe (optional)
	if cfg.ProbeUserID != "" {
		sendStartupProbe(webhookHandler.Client(), cfg.ProbeUserID, log)
	}

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	// Setup routes
	setupRoutes(router, webhookHandler, db, registry, cfg)

	// Create HTTP server with timeouts sized for LINE webhook handling
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g errgroup.Group

	// Old chart image pruning (daily)
	if chartClient != nil {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("Panic in chart pruning goroutine", "panic", r)
				}
			}()
			pruneOldCharts(ctx, chartClient, log)
			return nil
		})
	}

	// Active dialogue gauge updater (every minute)
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic in dialogue metrics goroutine", "panic", r)
			}
		}()
		updateDialogueMetrics(ctx, states, m, log)
		return nil
	})

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop background goroutines
	cancel()

	goDone := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Drain in-flight webhook event processing
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timed out waiting for event processing to drain")
	}

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Close database connection
	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// sendStartupProbe pushes a test message to confirm the channel token works.
// A failure is logged, not fatal: the webhook can still serve replies.
func sendStartupProbe(client *messaging_api.MessagingApiAPI, userID string, log *logger.Logger) {
	_, err := client.PushMessage(&messaging_api.PushMessageRequest{
		To: userID,
		Messages: []messaging_api.MessageInterface{
			&messaging_api.TextMessage{Text: "這是一條測試訊息，確認 LINE API 是否正常"},
		},
	}, "")
	if err != nil {
		log.WithError(err).Warn("Startup probe push failed")
		return
	}
	log.Info("Startup probe message sent")
}
