package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// UserCacheTTL bounds how stale a cached session user can be.
const UserCacheTTL = 60 * time.Second

const userCachePrefix = "cache:user:"

// CachedUser is the cached projection of a user. The password hash is never
// cached.
type CachedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	IsRider      bool      `json:"is_rider"`
	IsPassenger  bool      `json:"is_passenger"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetUser retrieves a user from cache. A miss returns nil, nil.
func (s *CacheStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	data, err := s.client.Get(ctx, userCachePrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           cached.ID,
		Email:        cached.Email,
		Name:         cached.Name,
		Phone:        cached.Phone,
		IsRider:      cached.IsRider,
		IsPassenger:  cached.IsPassenger,
		ProfileImage: cached.ProfileImage,
		CreatedAt:    cached.CreatedAt,
		UpdatedAt:    cached.UpdatedAt,
	}, nil
}

// SetUser stores a user in cache, replacing any cached copy.
func (s *CacheStore) SetUser(ctx context.Context, user *domain.User) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userCachePrefix+user.ID, data, UserCacheTTL).Err()
}

// FillUser stores a user only when nothing is cached for it yet, so a
// read-through fill never overwrites a copy written after a role change.
// Returns false when an entry was already present.
func (s *CacheStore) FillUser(ctx context.Context, user *domain.User) (bool, error) {
	data, err := encodeUser(user)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, userCachePrefix+user.ID, data, UserCacheTTL).Result()
}

func encodeUser(user *domain.User) ([]byte, error) {
	return json.Marshal(CachedUser{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Phone:        user.Phone,
		IsRider:      user.IsRider,
		IsPassenger:  user.IsPassenger,
		ProfileImage: user.ProfileImage,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
}

// InvalidateUser removes a user from cache.
func (s *CacheStore) InvalidateUser(ctx context.Context, userID string) error {
	return s.client.Del(ctx, userCachePrefix+userID).Err()
}
