package redis

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// UserCacheInterface defines the interface for session user caching.
type UserCacheInterface interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	SetUser(ctx context.Context, user *domain.User) error
	FillUser(ctx context.Context, user *domain.User) (bool, error)
	InvalidateUser(ctx context.Context, userID string) error
}

// LockStoreInterface defines the interface for exclusive locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// Ensure concrete types implement interfaces.
var (
	_ UserCacheInterface = (*CacheStore)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
