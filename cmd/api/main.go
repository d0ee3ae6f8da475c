// Package main はAPIサーバーのエントリーポイントです。
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/task-manager/internal/config"
	"github.com/yourusername/task-manager/internal/logging"
	"github.com/yourusername/task-manager/internal/metrics"
	"github.com/yourusername/task-manager/internal/server"
	"github.com/yourusername/task-manager/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	logger := logging.New("task-manager-api", cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := setupMongo(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up MongoDB")
	}
	logger.WithField("database", cfg.MongoDatabase).Info("MongoDB connected")

	limiter, closeLimiter, err := setupLimiter(ctx, cfg, logger)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		logger.WithError(err).Fatal("failed to set up login limiter")
	}
	defer closeLimiter()

	router := server.NewRouter(server.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Users:   storage.NewUserStore(db),
		Tasks:   storage.NewTaskStore(db),
		Limiter: limiter,
		Metrics: metrics.New(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// サーバーの起動
	go func() {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "mode": cfg.GinMode}).Info("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to disconnect MongoDB")
	}
}
