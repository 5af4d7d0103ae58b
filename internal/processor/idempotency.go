package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/nimasrn/parcel-shipping/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("event already processed")
	ErrLockAcquireFailed  = errors.New("failed to acquire processing lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	// LockTTL bounds how long a crashed consumer can hold an event.
	LockTTL time.Duration
	// ProcessedTTL is how long a handled event is remembered.
	ProcessedTTL       time.Duration
	MaxRetries         int
	RetryKeyPrefix     string
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "notify:retry:",
		LockKeyPrefix:      "notify:lock:",
		ProcessedKeyPrefix: "notify:done:",
	}
}

// IdempotencyService makes sure a shipment event produces at most one
// notification even when the stream redelivers it.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type ProcessingContext struct {
	EventID      string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
}

func (s *IdempotencyService) AcquireProcessingLock(_ context.Context, eventID string) (*ProcessingContext, error) {
	exists, err := s.redis.Exist(s.config.ProcessedKeyPrefix + eventID)
	if err != nil {
		// a duplicate email beats a stuck stream
		logger.Warn("failed to check processed marker", "event_id", eventID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyProcessed
	}

	retryCount, err := s.GetRetryCount(context.Background(), eventID)
	if err != nil {
		logger.Warn("failed to read retry counter", "event_id", eventID, "error", err)
	}
	if retryCount >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: event_id=%s, retries=%d", ErrMaxRetriesExceeded, eventID, retryCount)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(s.config.LockKeyPrefix+eventID, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	logger.Debug("processing lock acquired", "event_id", eventID, "retry_count", retryCount)

	return &ProcessingContext{
		EventID:      eventID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
	}, nil
}

func (s *IdempotencyService) MarkSuccess(ctx context.Context, pc *ProcessingContext) error {
	if err := s.redis.Set(s.config.ProcessedKeyPrefix+pc.EventID, []byte("1"), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}
	s.cleanup(ctx, pc)
	return nil
}

func (s *IdempotencyService) MarkFailure(_ context.Context, pc *ProcessingContext, reason error) error {
	next := pc.RetryCount + 1
	if err := s.redis.Set(s.config.RetryKeyPrefix+pc.EventID, []byte(strconv.Itoa(next)), s.config.ProcessedTTL); err != nil {
		logger.Error("failed to increment retry counter", "event_id", pc.EventID, "error", err)
	}
	if err := s.redis.Del(s.config.LockKeyPrefix + pc.EventID); err != nil {
		logger.Warn("failed to remove lock", "event_id", pc.EventID, "error", err)
	}
	pc.lockAcquired = false

	logger.Warn("notification failed, will retry",
		"event_id", pc.EventID,
		"retry_count", next,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return nil
}

func (s *IdempotencyService) ReleaseLock(_ context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}
	if err := s.redis.Del(s.config.LockKeyPrefix + pc.EventID); err != nil {
		return err
	}
	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) cleanup(_ context.Context, pc *ProcessingContext) {
	if err := s.redis.Del(s.config.LockKeyPrefix + pc.EventID); err != nil {
		logger.Warn("failed to cleanup lock", "event_id", pc.EventID, "error", err)
	}
	if err := s.redis.Del(s.config.RetryKeyPrefix + pc.EventID); err != nil {
		logger.Warn("failed to cleanup retry counter", "event_id", pc.EventID, "error", err)
	}
	pc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(_ context.Context, eventID string) (int, error) {
	raw, err := s.redis.Get(s.config.RetryKeyPrefix + eventID)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *IdempotencyService) IsProcessed(_ context.Context, eventID string) (bool, error) {
	exists, err := s.redis.Exist(s.config.ProcessedKeyPrefix + eventID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
