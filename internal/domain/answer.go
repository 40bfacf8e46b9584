package domain

import "time"

// AnswerRecord is one evaluated response. Immutable once created.
type AnswerRecord struct {
	ID                  string       `json:"id"`
	QuestionID          string       `json:"questionId"`
	Topic               string       `json:"topic"`
	Type                QuestionType `json:"type"`
	Correct             bool         `json:"correct"`
	ResponseTimeSeconds float64      `json:"responseTimeSeconds"`
	Difficulty          Difficulty   `json:"difficulty"`
	Confidence          float64      `json:"confidence"`
	Timestamp           time.Time    `json:"timestamp"`
}

// FeatureCount is the fixed width of extracted feature vectors.
const FeatureCount = 8

// FeatureVector is the fixed-size numeric summary of an answer history.
type FeatureVector [FeatureCount]float64

// ProficiencyDataPoint pairs a feature vector with the performance score
// observed at extraction time. Append-only; doubles as training data.
type ProficiencyDataPoint struct {
	Features  FeatureVector `json:"features"`
	Score     float64       `json:"score"`
	Timestamp time.Time     `json:"timestamp"`
}

// Performance aggregates one quiz's metrics for proficiency estimation.
type Performance struct {
	CorrectRatio           float64
	AvgResponseTimeSeconds float64
	ConfidenceScore        float64
}
