package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/domain"
)

// ModelStore keeps trained proficiency-model snapshots in memory.
type ModelStore struct {
	mu     sync.RWMutex
	models map[modelKey]*adaptive.Model
}

type modelKey struct {
	userID string
	topic  string
}

func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[modelKey]*adaptive.Model)}
}

func (s *ModelStore) LoadModel(_ context.Context, userID, topic string) (*adaptive.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	model, ok := s.models[modelKey{userID: userID, topic: topic}]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	return model, nil
}

func (s *ModelStore) SaveModel(_ context.Context, userID, topic string, model *adaptive.Model) error {
	s.mu.Lock()
	s.models[modelKey{userID: userID, topic: topic}] = model
	s.mu.Unlock()
	return nil
}
