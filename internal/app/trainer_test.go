package app

import (
	"context"
	"testing"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"
)

func TestTrainSkipsWithoutEnoughData(t *testing.T) {
	history := memory.NewHistoryStore()
	models := memory.NewModelStore()
	trainer := NewTrainer(history, models, adaptive.TrainConfig{Epochs: 5, LearningRate: 0.01})

	ctx := context.Background()
	if err := history.AppendDataPoint(ctx, "u1", "algebra", domain.ProficiencyDataPoint{Score: 0.5}); err != nil {
		t.Fatalf("append: %v", err)
	}

	trained, err := trainer.Train(ctx, "u1", "algebra")
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if trained {
		t.Fatal("training should be skipped with one data point")
	}
	if _, err := models.LoadModel(ctx, "u1", "algebra"); err == nil {
		t.Fatal("no snapshot should have been stored")
	}
}

func TestTrainStoresSnapshot(t *testing.T) {
	history := memory.NewHistoryStore()
	models := memory.NewModelStore()
	trainer := NewTrainer(history, models, adaptive.TrainConfig{Epochs: 5, LearningRate: 0.01})

	ctx := context.Background()
	for i := 0; i < adaptive.MinTrainingSamples; i++ {
		point := domain.ProficiencyDataPoint{
			Features:  domain.FeatureVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.1, 0.1, 0.25},
			Score:     0.6,
			Timestamp: time.Now(),
		}
		if err := history.AppendDataPoint(ctx, "u1", "algebra", point); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	trained, err := trainer.Train(ctx, "u1", "algebra")
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if !trained {
		t.Fatal("training should run with enough data points")
	}

	model, err := models.LoadModel(ctx, "u1", "algebra")
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	p := model.Predict(domain.FeatureVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.1, 0.1, 0.25})
	if p < 0 || p > 1 {
		t.Fatalf("snapshot prediction %f out of range", p)
	}
}
