package ledger

import "time"

// Default retry and timeout configuration
const (
	DefaultMaxAttempts          = 5
	DefaultRetryBaseDelay       = 20 * time.Millisecond
	DefaultAttemptTimeout       = 3 * time.Second
	DefaultCompensationAttempts = 5
)

// Cache keys and durations
const (
	WalletCachePrefix = "ledger:wallet"
	DefaultCacheTTL   = 5 * time.Minute
)

// History query bounds
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)
