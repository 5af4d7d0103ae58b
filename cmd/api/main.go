package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/parcel-shipping/internal/config"
	"github.com/nimasrn/parcel-shipping/internal/handlers"
	"github.com/nimasrn/parcel-shipping/internal/identity"
	"github.com/nimasrn/parcel-shipping/internal/queue"
	"github.com/nimasrn/parcel-shipping/internal/rates"
	"github.com/nimasrn/parcel-shipping/internal/repository"
	"github.com/nimasrn/parcel-shipping/internal/services"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/nimasrn/parcel-shipping/pkg/pg"
	"github.com/nimasrn/parcel-shipping/pkg/prom"
	"github.com/nimasrn/parcel-shipping/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger.SetService("api")
	defer logger.Sync()

	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Server.ReadTimeout = config.Get().HttpServerReadTimeout
	s.Server.WriteTimeout = config.Get().HttpServerWriteTimeout
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(config.Get().HttpRequestTimeout))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

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

	// the api only publishes, the group is created so events published
	// before the first processor start are not lost
	events, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:          config.Get().EventsStream,
		ConsumerGroup: config.Get().EventsGroup,
		MaxLen:        config.Get().EventsMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event stream", "error", err)
		return
	}

	shipmentRepo := repository.NewShipmentRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	sessions := identity.NewSessionStore(redisAdap, config.Get().SessionTTL)

	// services
	engine := rates.NewEngine(rates.Bounds{
		MaxWeightKg:     config.Get().RatesMaxWeightKg,
		MaxPackageCount: config.Get().RatesMaxPackageCount,
	})
	shipmentService := services.NewShipmentService(shipmentRepo, historyRepo, events, engine, config.Get().TrackingNumberPrefix)
	healthService := services.NewHealthService(map[string]services.Pinger{
		"postgres": db,
		"redis": services.PingFunc(func(ctx context.Context) error {
			return redisAdap.Client().Ping(ctx).Err()
		}),
	})

	// v1 handlers
	rateHandler := handlers.NewRateHandler(shipmentService)
	shipmentHandler := handlers.NewShipmentHandler(shipmentService, sessions, config.Get().OperatorAPIKey)
	identityHandler := handlers.NewIdentityHandler(sessions)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterRateRoutes(g, rateHandler)
	handlers.RegisterShipmentRoutes(g, shipmentHandler)
	handlers.RegisterIdentityRoutes(g, identityHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	if config.Get().OperatorAPIKey == "" {
		logger.Warn("OPERATOR_API_KEY is empty, status updates are disabled")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go func() {
		prom.ListenAndServer(config.Get().PromListenAddr, "/metrics")
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	logger.Info("shutting down api")
	s.Shutdown()
	if err := events.Stop(5 * time.Second); err != nil {
		logger.Warn("event stream did not stop cleanly", "error", err)
	}
}
