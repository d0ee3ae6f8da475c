package main

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yourusername/task-manager/internal/auth"
	"github.com/yourusername/task-manager/internal/config"
	"github.com/yourusername/task-manager/internal/storage"
)

// setupMongo は MongoDB に接続し、インデックスを作成します。
func setupMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, err := storage.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout())
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.MongoDatabase)

	indexCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout())
	defer cancel()
	if err := storage.EnsureIndexes(indexCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

// setupLimiter は REDIS_URL が設定されている場合にログイン試行制限を作成します。
// 未設定なら nil を返し、試行制限は行いません。
func setupLimiter(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (auth.LoginLimiter, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL is not set; login attempt limiting is disabled")
		return nil, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	limiter := auth.NewRedisLimiter(client, auth.LimiterOptions{
		MaxAttempts:  cfg.LoginMaxAttempts,
		Window:       time.Duration(cfg.LoginWindowMinutes) * time.Minute,
		LockDuration: time.Duration(cfg.LoginLockMinutes) * time.Minute,
	})
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis client")
		}
	}
	return limiter, closeFn, nil
}
