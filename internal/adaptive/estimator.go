package adaptive

import (
	"fmt"
	"time"

	"adaptive-quiz-service/internal/domain"
)

// QuizRecord is one prior quiz's performance as seen by the estimator.
type QuizRecord struct {
	CorrectRatio           float64
	AvgResponseTimeSeconds float64
	HasTiming              bool
	Timestamp              time.Time
}

// Predictor supplies regression-model proficiency predictions. The zero
// value of an estimator works without one; the model path is optional by
// contract.
type Predictor interface {
	PredictProficiency(features domain.FeatureVector) (float64, error)
}

// Performance-score weights: correctness dominates, speed and confidence
// break ties.
const (
	weightCorrect    = 0.6
	weightSpeed      = 0.3
	weightConfidence = 0.1
)

// Blend weights: the heuristic leads because the regression model is
// usually undertrained early in a user's history.
const (
	blendModel     = 0.4
	blendHeuristic = 0.6
)

// neutralProficiency is the prior used whenever no usable model exists.
const neutralProficiency = 0.5

// Estimator produces a [0,1] proficiency from current performance, history
// and an optional trained model. Estimate never fails; a model error is
// reported back for logging but the returned value is always usable.
type Estimator struct{}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// PerformanceScore folds one quiz's metrics into a single [0,1] score.
func (e *Estimator) PerformanceScore(p domain.Performance) float64 {
	timeFactor := 1.0 - p.AvgResponseTimeSeconds/60.0
	if timeFactor < 0 {
		timeFactor = 0
	}
	if timeFactor > 1 {
		timeFactor = 1
	}
	return clamp01(weightCorrect*p.CorrectRatio + weightSpeed*timeFactor + weightConfidence*p.ConfidenceScore)
}

// Estimate blends the model prediction with the heuristic baseline.
// The returned error only records a model fallback; proficiency is valid
// either way.
func (e *Estimator) Estimate(perf domain.Performance, current domain.Difficulty, history []QuizRecord, features domain.FeatureVector, predictor Predictor) (float64, error) {
	score := e.PerformanceScore(perf)
	heuristic := e.heuristic(score, current, history)

	predicted := neutralProficiency
	var modelErr error
	if predictor != nil {
		p, err := predictor.PredictProficiency(features)
		if err != nil {
			modelErr = fmt.Errorf("proficiency model fallback: %w", err)
		} else {
			predicted = clamp01(p)
		}
	}

	return clamp01(blendModel*predicted + blendHeuristic*heuristic), modelErr
}

// heuristic seeds a baseline at the performance score scaled by the current
// difficulty, then nudges it with the recent streak and response-time trend.
func (e *Estimator) heuristic(score float64, current domain.Difficulty, history []QuizRecord) float64 {
	h := score * float64(current.Ordinal()) / 3.0
	if len(history) == 0 {
		return clamp01(h)
	}

	// Consecutive strong quizzes, counted backward from the most recent.
	streak := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].CorrectRatio <= 0.7 {
			break
		}
		streak++
	}
	bonus := 0.03 * float64(streak)
	if bonus > 0.15 {
		bonus = 0.15
	}
	h += bonus

	// Mean response time over the last few timed quizzes.
	var timeSum float64
	timed := 0
	for i := len(history) - 1; i >= 0 && timed < 5; i-- {
		if history[i].HasTiming {
			timeSum += history[i].AvgResponseTimeSeconds
			timed++
		}
	}
	if timed > 0 {
		mean := timeSum / float64(timed)
		switch {
		case mean < 20:
			h += 0.05
		case mean > 45:
			h -= 0.05
		}
	}
	return clamp01(h)
}
