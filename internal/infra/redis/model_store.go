package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ModelStore keeps trained proficiency-model snapshots in Redis as JSON.
// Snapshots are cheap to retrain, so a TTL (with jitter to spread
// expirations) keeps stale models from outliving their training data.
type ModelStore struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewModelStore(client *redis.Client, ttl time.Duration) *ModelStore {
	return &ModelStore{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ModelStore) LoadModel(ctx context.Context, userID, topic string) (*adaptive.Model, error) {
	raw, err := s.client.Get(ctx, s.key(userID, topic)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	var model adaptive.Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return &model, nil
}

func (s *ModelStore) SaveModel(ctx context.Context, userID, topic string, model *adaptive.Model) error {
	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID, topic), raw, s.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

func (s *ModelStore) key(userID, topic string) string {
	return "model:" + userID + ":" + topic
}

func (s *ModelStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
