package adaptive

import (
	"math"
	"time"

	"adaptive-quiz-service/internal/domain"
)

// Feature vector layout. All features are normalized to roughly [0,1].
const (
	featCorrectRatio = iota
	featResponseTime
	featConfidence
	featAvgDifficulty
	featRecency
	featQuestionCount
	featStreak
	featInteraction
)

// Response times are seconds end to end; the cap keeps one stuck question
// from dominating the normalization.
const responseTimeCapSeconds = 60.0

// FeatureExtractor turns an answer history into the fixed 8-dim vector
// consumed by the proficiency model.
type FeatureExtractor struct{}

func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract computes the feature vector for a window of answer records.
// An empty history yields the zero vector; that is a defined state for a
// brand-new user-topic pair, not an error.
func (f *FeatureExtractor) Extract(history []domain.AnswerRecord, confidenceScores []float64, now time.Time) domain.FeatureVector {
	var v domain.FeatureVector
	if len(history) == 0 {
		return v
	}

	total := float64(len(history))
	correct := 0
	var timeSum, diffSum float64
	streak, longest := 0, 0
	var last time.Time
	for _, rec := range history {
		if rec.Correct {
			correct++
			streak++
			if streak > longest {
				longest = streak
			}
		} else {
			streak = 0
		}
		timeSum += rec.ResponseTimeSeconds
		diffSum += difficultyWeight(rec.Difficulty.String())
		if rec.Timestamp.After(last) {
			last = rec.Timestamp
		}
	}

	v[featCorrectRatio] = float64(correct) / total
	v[featResponseTime] = math.Min(timeSum/total/responseTimeCapSeconds, 1.0)

	v[featConfidence] = 0.5
	if len(confidenceScores) > 0 {
		var sum float64
		for _, c := range confidenceScores {
			sum += c
		}
		v[featConfidence] = sum / float64(len(confidenceScores))
	}

	v[featAvgDifficulty] = diffSum / total
	v[featRecency] = recencyFactor(last, now)
	v[featQuestionCount] = math.Min(total/50.0, 1.0)
	v[featStreak] = math.Min(float64(longest)/10.0, 1.0)
	v[featInteraction] = v[featCorrectRatio] * v[featConfidence]
	return v
}

// recencyFactor decays exponentially with days since the last interaction:
// 1.0 for "just now", ~0.37 after 10 days.
func recencyFactor(last, now time.Time) float64 {
	if last.IsZero() || !last.Before(now) {
		return 1.0
	}
	days := now.Sub(last).Hours() / 24.0
	return math.Exp(-0.1 * days)
}

// difficultyWeight maps raw difficulty labels onto a monotonic [0,1] scale.
// External question payloads may carry the five-point labels; the platform's
// own three levels are pinned onto the same scale.
func difficultyWeight(label string) float64 {
	switch label {
	case "beginner":
		return 0.2
	case "easy":
		return 0.4
	case "medium", "intermediate":
		return 0.6
	case "hard":
		return 0.8
	case "expert", "advanced":
		return 1.0
	default:
		return 0.6
	}
}
