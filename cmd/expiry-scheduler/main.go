package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/cache"
	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	planservice "github.com/magabrotheeeer/subscription-manager/internal/services/plan"
	schedulerservice "github.com/magabrotheeeer/subscription-manager/internal/services/scheduler"
	subservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-manager/internal/storage/repository"
)

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting expiry-scheduler", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to connect to RabbitMQ", slog.String("URL", cfg.RabbitMQURL))
	defer func() {
		_ = conn.Close()
	}()

	queues := rabbitmq.GetSubscriptionQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to setup RabbitMQ channel")
	defer func() {
		_ = ch.Close()
	}()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()
	if err = waitForDB(db); err != nil {
		logger.Error("database is not ready", sl.Err(err))
		os.Exit(1)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Error("failed to connect to redis", sl.Err(err))
		os.Exit(1)
	}

	planService := planservice.NewPlanService(db, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, planService, cacheRedis, logger)
	schedulerService := schedulerservice.NewSchedulerService(subscriptionService, logger)

	schedulerService.Run(ctx, cfg.SweepInterval, ch)

	logger.Info("expiry-scheduler stopped gracefully")
}
