package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/parcel-shipping/internal/config"
	"github.com/nimasrn/parcel-shipping/internal/notifier"
	"github.com/nimasrn/parcel-shipping/internal/processor"
	"github.com/nimasrn/parcel-shipping/internal/queue"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/nimasrn/parcel-shipping/pkg/prom"
	"github.com/nimasrn/parcel-shipping/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger.SetService("processor")
	defer logger.Sync()

	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting processor", "version", version, "commit", commit, "date", date)

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	client, err := notifier.NewClient(notifier.Config{
		URL:                     config.Get().NotifierURL,
		Timeout:                 config.Get().NotifierTimeout,
		MaxConns:                256,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   60 * time.Second,
	})
	if err != nil {
		logger.Error("failed to create notifier client", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	consumer := config.Get().EventsConsumer
	if consumer == "" {
		consumer = hostname
	}

	idempotencyService := processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig())

	service := processor.NewProcessorService(redisAdap, processor.Options{
		Queue: queue.QueueConfig{
			Name:              config.Get().EventsStream,
			ConsumerGroup:     config.Get().EventsGroup,
			ConsumerName:      consumer,
			MaxRetries:        config.Get().EventsMaxRetries,
			VisibilityTimeout: config.Get().EventsVisibility,
			PollInterval:      config.Get().EventsPollInterval,
			BatchSize:         config.Get().EventsBatchSize,
			MaxLen:            config.Get().EventsMaxLen,
			EnableDLQ:         config.Get().EventsEnableDLQ,
		},
		Consumers: 2,
		Workers:   config.Get().ProcessorWorkers,
	})
	service.RegisterProcessor(processor.NewNotificationProcessor(client, idempotencyService))

	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(config.Get().PromListenAddr, "/metrics")
	}()

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	service.Stop()
}
