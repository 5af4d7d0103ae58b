package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/valyala/fasthttp"
)

var ErrCircuitOpen = errors.New("notification provider circuit open")

type DeliveryStatus string

const (
	StatusAccepted DeliveryStatus = "ACCEPTED"
	StatusRejected DeliveryStatus = "REJECTED"
)

type SendResponse struct {
	NotificationID string         `json:"notification_id"`
	Status         DeliveryStatus `json:"status"`
	ProviderRef    string         `json:"provider_ref"`
	ErrorMsg       string         `json:"error_message,omitempty"`
	ProcessedAt    time.Time      `json:"processed_at"`
}

type Metrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *Metrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *Metrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *Metrics) AvgLatencyMs() int64 {
	ok := m.SuccessfulReqs.Load()
	if ok == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / ok
}

func (m *Metrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

type Config struct {
	URL                     string
	Timeout                 time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// Client posts notifications to a single provider. After
// CircuitBreakerThreshold consecutive failures calls fail fast until
// CircuitBreakerTimeout passes.
type Client struct {
	config           Config
	http             *fasthttp.Client
	metrics          *Metrics
	circuitOpenUntil atomic.Int64
}

func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("notifier url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.CircuitBreakerThreshold == 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout == 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &Client{
		config: config,
		http: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
		metrics: &Metrics{},
	}

	logger.Info("notifier client initialized", "url", config.URL, "timeout", config.Timeout)
	return c, nil
}

func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Send delivers one notification. It does not retry, the event stream
// redelivers on error.
func (c *Client) Send(ctx context.Context, n model.Notification) (*SendResponse, error) {
	if until := c.circuitOpenUntil.Load(); until > 0 && time.Now().UnixNano() < until {
		return nil, ErrCircuitOpen
	}

	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	start := time.Now()
	raw, err := c.doRequest(ctx, fasthttp.MethodPost, body)
	if err != nil {
		c.metrics.RecordFailure()
		c.checkCircuitBreaker()
		return nil, err
	}
	c.metrics.RecordSuccess(time.Since(start).Milliseconds())
	c.circuitOpenUntil.Store(0)

	var resp SendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, method string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) checkCircuitBreaker() {
	fails := c.metrics.ConsecutiveFails.Load()
	if fails < int32(c.config.CircuitBreakerThreshold) {
		return
	}
	c.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).UnixNano())
	logger.Warn("notifier circuit breaker opened", "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
}
