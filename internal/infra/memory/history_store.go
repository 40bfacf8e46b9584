package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// HistoryStore keeps per-(user, topic) answer and training-data logs in
// memory. Both logs are append-only.
type HistoryStore struct {
	mu      sync.RWMutex
	answers map[historyKey][]domain.AnswerRecord
	points  map[historyKey][]domain.ProficiencyDataPoint
}

type historyKey struct {
	userID string
	topic  string
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		answers: make(map[historyKey][]domain.AnswerRecord),
		points:  make(map[historyKey][]domain.ProficiencyDataPoint),
	}
}

func (s *HistoryStore) AppendAnswer(_ context.Context, userID, topic string, record domain.AnswerRecord) error {
	key := historyKey{userID: userID, topic: topic}
	s.mu.Lock()
	s.answers[key] = append(s.answers[key], record)
	s.mu.Unlock()
	return nil
}

func (s *HistoryStore) ListAnswers(_ context.Context, userID, topic string) ([]domain.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.answers[historyKey{userID: userID, topic: topic}]
	return append([]domain.AnswerRecord(nil), records...), nil
}

func (s *HistoryStore) AppendDataPoint(_ context.Context, userID, topic string, point domain.ProficiencyDataPoint) error {
	key := historyKey{userID: userID, topic: topic}
	s.mu.Lock()
	s.points[key] = append(s.points[key], point)
	s.mu.Unlock()
	return nil
}

func (s *HistoryStore) ListDataPoints(_ context.Context, userID, topic string) ([]domain.ProficiencyDataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := s.points[historyKey{userID: userID, topic: topic}]
	return append([]domain.ProficiencyDataPoint(nil), points...), nil
}
