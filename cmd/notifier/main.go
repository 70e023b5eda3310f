package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openshelf/catalog/cmd/notifier/fanout"
	"github.com/openshelf/catalog/common/bootstrap"
	"github.com/openshelf/catalog/common/config"
	"github.com/openshelf/catalog/common/repository"
	"github.com/openshelf/catalog/common/server"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load("notifier")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// The notifier reads and writes the same database as the catalog
	// service but never serves entity pages, so no cache.
	components, err := bootstrap.Setup(ctx, "notifier",
		bootstrap.WithConfig(cfg),
		bootstrap.WithRedisClient(redisRaw),
		bootstrap.WithoutCache(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap notifier: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	f := fanout.New(&fanout.Opts{
		Subscribers: repository.NewSubscriptionRepository(components.DB),
		Editors:     repository.NewEditorRepository(components.DB),
		Sink:        repository.NewNotificationRepository(components.DB),
		Metrics:     components.Metrics,
		Logger:      components.Logger,
		Workers:     cfg.Notifier.Workers,
		QueueSize:   cfg.Notifier.QueueSize,
	})
	defer f.Close()

	topic := cfg.Queue.Topic
	if err := components.Queue.Subscribe(ctx, topic, f.Handle); err != nil {
		components.Logger.Error("failed to subscribe", "topic", topic, "error", err)
		os.Exit(1)
	}

	components.Logger.Info("notifier consuming change events",
		"topic", topic,
		"workers", cfg.Notifier.Workers,
	)

	// Health and metrics are all the notifier serves over HTTP; the real
	// work happens on the queue subscription.
	mux := server.ObservabilityMux(components.Metrics.Registry)

	srv := server.New("notifier", cfg.Service.Port, mux, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
