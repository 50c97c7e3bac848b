package ledger

import (
	"context"
	"fmt"
	"time"

	"strategiz/internal/models"
)

func walletCacheKey(userID string) string {
	return fmt.Sprintf("%s:%s", WalletCachePrefix, userID)
}

func (s *service) getCachedWallet(ctx context.Context, userID string) *models.Wallet {
	key := walletCacheKey(userID)
	var wallet models.Wallet
	found, err := s.cache.Get(ctx, key, &wallet)
	if err != nil || !found {
		s.metrics.RecordCacheMiss(key)
		return nil
	}
	s.metrics.RecordCacheHit(key)
	return &wallet
}

func (s *service) cacheWallet(ctx context.Context, wallet *models.Wallet) {
	if err := s.cache.SetWithTTL(ctx, walletCacheKey(wallet.UserID), wallet, s.config.CacheTTL); err != nil {
		s.metrics.RecordError("cache_set", err.Error())
	}
}

func (s *service) invalidateWalletCache(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, walletCacheKey(userID)); err != nil {
		s.metrics.RecordError("cache_invalidate", err.Error())
	}
}

// noopCache disables caching when no backend is configured.
type noopCache struct{}

func (noopCache) Get(context.Context, string, interface{}) (bool, error)             { return false, nil }
func (noopCache) SetWithTTL(context.Context, string, interface{}, time.Duration) error { return nil }
func (noopCache) Delete(context.Context, ...string) error                            { return nil }
