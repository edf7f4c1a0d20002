// Package main wires together the catalogue service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/katevors/figvault/internal/api"
	"github.com/katevors/figvault/internal/assets"
	"github.com/katevors/figvault/internal/auth"
	"github.com/katevors/figvault/internal/config"
	"github.com/katevors/figvault/internal/kv"
	gcskv "github.com/katevors/figvault/internal/kv/gcs"
	pgkv "github.com/katevors/figvault/internal/kv/postgres"
	"github.com/katevors/figvault/internal/logging"
	"github.com/katevors/figvault/internal/metrics"
	"github.com/katevors/figvault/internal/mfc"
	"github.com/katevors/figvault/internal/publisher"
	memorypublisher "github.com/katevors/figvault/internal/publisher/memory"
	pubsubpublisher "github.com/katevors/figvault/internal/publisher/pubsub"
	"github.com/katevors/figvault/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	verifier, err := auth.New(auth.Config{
		Username:   cfg.Auth.AdminUsername,
		Password:   cfg.Auth.AdminPassword,
		Secret:     cfg.Auth.SessionSecret,
		SessionTTL: cfg.Auth.SessionTTL(),
	})
	if err != nil {
		logger.Fatal("auth init failed", zap.Error(err))
	}

	provider, cleanup, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer cleanup()

	events, pubCleanup, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer pubCleanup()

	collections := store.New(
		provider,
		cfg.Storage.Key,
		logger.Named("store"),
		store.WithPublisher(events, cfg.PubSub.TopicName),
	)

	scraper := mfc.NewClient(mfc.Config{
		BaseURL:        cfg.MFC.BaseURL,
		UserAgent:      cfg.MFC.UserAgent,
		AcceptLanguage: cfg.MFC.AcceptLanguage,
		Timeout:        cfg.MFC.Timeout(),
	})

	apiServer := api.NewServer(
		verifier,
		collections,
		scraper,
		assets.New(cfg.Server.AssetsDir),
		logger.Named("api"),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (kv.Provider, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pg, err := pgkv.New(ctx, pgkv.Config{
			DSN:   cfg.Storage.DSN,
			Table: cfg.Storage.Table,
		})
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		gcs, err := gcskv.New(client, gcskv.Config{
			Bucket: cfg.Storage.GCSBucket,
			Prefix: cfg.Storage.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return gcs, func() {
			if err := client.Close(); err != nil {
				logger.Warn("storage client close failed", zap.Error(err))
			}
		}, nil
	default:
		return kv.NewMemory(), func() {}, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (publisher.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" {
		return memorypublisher.New(), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	topic := client.Topic(cfg.PubSub.TopicName)
	return pubsubpublisher.New(topic), func() {
		topic.Stop()
		_ = client.Close()
	}, nil
}
