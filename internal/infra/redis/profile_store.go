package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ProfileStore is a cache-aside decorator over a durable profile store.
// Reads are served from Redis when possible; every write goes through to
// the backing store first, then refreshes the cache (best effort). Listing
// always hits the backing store since it is a rare, whole-population scan.
type ProfileStore struct {
	client *redis.Client
	inner  coldstart.ProfileStore
	ttl    time.Duration
}

func NewProfileStore(client *redis.Client, inner coldstart.ProfileStore, ttl time.Duration) *ProfileStore {
	return &ProfileStore{client: client, inner: inner, ttl: ttl}
}

func (s *ProfileStore) Load(ctx context.Context, userID string) (*domain.UserProfile, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == nil {
		var profile domain.UserProfile
		if jsonErr := json.Unmarshal(raw, &profile); jsonErr == nil {
			return &profile, nil
		}
		// Corrupt cache entry: drop it and fall through to the source.
		_ = s.client.Del(ctx, s.key(userID)).Err()
	}

	profile, err := s.inner.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, profile)
	return profile, nil
}

func (s *ProfileStore) Save(ctx context.Context, profile *domain.UserProfile) error {
	if err := s.inner.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.cache(ctx, profile)
	return nil
}

func (s *ProfileStore) List(ctx context.Context) ([]*domain.UserProfile, error) {
	return s.inner.List(ctx)
}

func (s *ProfileStore) cache(ctx context.Context, profile *domain.UserProfile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, s.key(profile.UserID), raw, s.ttl).Err()
}

func (s *ProfileStore) key(userID string) string {
	return "profile:" + userID
}
