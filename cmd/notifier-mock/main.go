package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type DeliveryStatus string

const (
	StatusAccepted DeliveryStatus = "ACCEPTED"
	StatusRejected DeliveryStatus = "REJECTED"
)

type SendNotificationRequest struct {
	ID      string `json:"id" binding:"required"`
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body"`
}

type SendNotificationResponse struct {
	NotificationID string         `json:"notification_id"`
	Status         DeliveryStatus `json:"status"`
	ProviderRef    string         `json:"provider_ref"`
	ErrorMsg       string         `json:"error_message,omitempty"`
	ProcessedAt    time.Time      `json:"processed_at"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	ProviderID string    `json:"provider_id"`
	Timestamp  time.Time `json:"timestamp"`
	AcceptRate float64   `json:"accept_rate"`
	Sent       int       `json:"sent"`
}

// MockProvider stands in for the email provider in local setups.
type MockProvider struct {
	mu         sync.Mutex
	acceptRate float64
	maxDelay   time.Duration
	providerID string
	rng        *rand.Rand
	outbox     []SendNotificationRequest
}

func NewMockProvider(acceptRate float64, maxDelay time.Duration) *MockProvider {
	return &MockProvider{
		acceptRate: acceptRate,
		maxDelay:   maxDelay,
		providerID: "MOCK_MAIL_" + uuid.New().String()[:8],
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockProvider) deliver(req *SendNotificationRequest) *SendNotificationResponse {
	m.mu.Lock()
	var delay time.Duration
	if m.maxDelay > 0 {
		delay = time.Duration(m.rng.Int63n(int64(m.maxDelay)))
	}
	accepted := m.rng.Float64() < m.acceptRate
	if accepted {
		m.outbox = append(m.outbox, *req)
	}
	m.mu.Unlock()

	time.Sleep(delay)

	resp := &SendNotificationResponse{
		NotificationID: req.ID,
		ProviderRef:    uuid.NewString(),
		ProcessedAt:    time.Now(),
	}
	if accepted {
		resp.Status = StatusAccepted
		log.Info().
			Str("notification_id", req.ID).
			Str("to", req.To).
			Str("subject", req.Subject).
			Dur("delay", delay).
			Msg("notification accepted")
	} else {
		resp.Status = StatusRejected
		resp.ErrorMsg = "mailbox unavailable"
		log.Warn().
			Str("notification_id", req.ID).
			Str("to", req.To).
			Msg("notification rejected")
	}
	return resp
}

type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) Send(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	resp := h.provider.deliver(&req)
	status := http.StatusOK
	if resp.Status == StatusRejected {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// Outbox lists accepted notifications, newest last.
func (h *Handler) Outbox(c *gin.Context) {
	h.provider.mu.Lock()
	items := make([]SendNotificationRequest, len(h.provider.outbox))
	copy(items, h.provider.outbox)
	h.provider.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	h.provider.mu.Lock()
	sent := len(h.provider.outbox)
	h.provider.mu.Unlock()
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		ProviderID: h.provider.providerID,
		Timestamp:  time.Now(),
		AcceptRate: h.provider.acceptRate,
		Sent:       sent,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	router.POST("/notifications", handler.Send)
	router.GET("/notifications", handler.Outbox)
	router.GET("/health", handler.HealthCheck)
	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8090")
	acceptRate := getEnvFloat("ACCEPT_RATE", 1)
	maxDelay := getEnvDuration("MAX_DELAY", 200*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("accept_rate", acceptRate).
		Dur("max_delay", maxDelay).
		Msg("starting mock notification provider")

	router := SetupRouter(NewHandler(NewMockProvider(acceptRate, maxDelay)))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
