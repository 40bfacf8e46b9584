package app

import (
	"context"
	"math/rand"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ModelStore persists trained proficiency-model snapshots per (user, topic).
type ModelStore interface {
	LoadModel(ctx context.Context, userID, topic string) (*adaptive.Model, error)
	SaveModel(ctx context.Context, userID, topic string, model *adaptive.Model) error
}

// HistoryStore owns the append-only answer and training-data logs per
// (user, topic).
type HistoryStore interface {
	AppendAnswer(ctx context.Context, userID, topic string, record domain.AnswerRecord) error
	ListAnswers(ctx context.Context, userID, topic string) ([]domain.AnswerRecord, error)
	AppendDataPoint(ctx context.Context, userID, topic string, point domain.ProficiencyDataPoint) error
	ListDataPoints(ctx context.Context, userID, topic string) ([]domain.ProficiencyDataPoint, error)
}

// Trainer refits proficiency models out of band. Estimation never waits on
// it; it reads whatever snapshot training last produced. Concurrent triggers
// for the same (user, topic) collapse into one fit.
type Trainer struct {
	history HistoryStore
	models  ModelStore
	cfg     adaptive.TrainConfig
	sf      singleflight.Group
	// OnError receives background training failures; nil drops them.
	OnError func(userID, topic string, err error)
}

func NewTrainer(history HistoryStore, models ModelStore, cfg adaptive.TrainConfig) *Trainer {
	if cfg.Epochs <= 0 {
		cfg = adaptive.DefaultTrainConfig()
	}
	return &Trainer{history: history, models: models, cfg: cfg}
}

// Train fits and stores a model snapshot if enough data points exist.
// Returns false without error when training was skipped for lack of data.
func (t *Trainer) Train(ctx context.Context, userID, topic string) (bool, error) {
	points, err := t.history.ListDataPoints(ctx, userID, topic)
	if err != nil {
		return false, err
	}
	if len(points) < adaptive.MinTrainingSamples {
		return false, nil
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	model := adaptive.NewModel(rnd)
	if !model.Train(points, t.cfg, rnd) {
		return false, nil
	}
	if err := t.models.SaveModel(ctx, userID, topic, model); err != nil {
		return false, err
	}
	return true, nil
}

// TrainAsync schedules a background fit, deduplicated per (user, topic).
func (t *Trainer) TrainAsync(userID, topic string) {
	key := userID + "|" + topic
	go func() {
		_, err, _ := t.sf.Do(key, func() (interface{}, error) {
			trained, err := t.Train(context.Background(), userID, topic)
			return trained, err
		})
		if err != nil && t.OnError != nil {
			t.OnError(userID, topic, err)
		}
	}()
}
