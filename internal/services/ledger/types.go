package ledger

import (
	"context"
	"time"
)

// Reference links a ledger operation to the external event that caused it,
// e.g. a checkout session or a subscription id. The idempotency guard keys
// on it.
type Reference struct {
	Type string
	ID   string
}

// Config holds retry and cache tuning for the transaction engine.
type Config struct {
	// MaxAttempts bounds optimistic retries per operation.
	MaxAttempts int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
	// AttemptTimeout bounds a single atomic-unit attempt. Exceeding it is a
	// transient failure eligible for retry, not a fatal error.
	AttemptTimeout time.Duration
	// CompensationAttempts bounds the inline retries of a transfer's
	// compensating credit before escalating to the background.
	CompensationAttempts int
	// CacheTTL bounds staleness of cached wallet reads.
	CacheTTL time.Duration
}

// MetricsCollector receives ledger telemetry.
type MetricsCollector interface {
	RecordOperationDuration(operation string, d time.Duration)
	RecordTransaction(txType string, amount int64)
	RecordConflictRetry(operation string)
	// RecordUnlockClamp fires when an unlock requested more than was locked
	// and was clamped to zero. Worth watching: it can mask caller bugs.
	RecordUnlockClamp(userID string, requested, released int64)
	RecordCompensation(result string)
	RecordError(operation, errType string)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
}

// CacheOperator is the wallet read cache. Mutations invalidate; the store is
// always the source of truth.
type CacheOperator interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
