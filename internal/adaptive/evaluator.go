package adaptive

import (
	"strings"
	"time"

	"adaptive-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// Evaluator checks submitted answers against question content and scores
// answer-level confidence. All methods are pure; comparison errors of any
// kind degrade to an incorrect answer rather than propagating.
type Evaluator struct {
	clock func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{clock: time.Now}
}

// NewEvaluatorWithClock is test-only for deterministic timestamps.
func NewEvaluatorWithClock(now func() time.Time) *Evaluator {
	return &Evaluator{clock: now}
}

// Evaluate produces the immutable record for one submitted answer.
func (e *Evaluator) Evaluate(question domain.Question, userAnswer any, responseTimeSeconds float64) domain.AnswerRecord {
	correct := e.IsCorrect(question.Type, userAnswer, question.CorrectAnswer)
	return domain.AnswerRecord{
		ID:                  uuid.NewString(),
		QuestionID:          question.ID,
		Topic:               question.Topic,
		Type:                question.Type,
		Correct:             correct,
		ResponseTimeSeconds: responseTimeSeconds,
		Difficulty:          question.Difficulty,
		Confidence:          e.Confidence(correct, responseTimeSeconds, question.Difficulty),
		Timestamp:           e.clock(),
	}
}

// IsCorrect dispatches on the closed question-type set. Payloads that do not
// match the expected shape for the type are simply wrong answers.
func (e *Evaluator) IsCorrect(qt domain.QuestionType, userAnswer, correctAnswer any) bool {
	switch qt {
	case domain.MultipleChoice, domain.TrueFalse:
		return equalText(userAnswer, correctAnswer)
	case domain.MultipleSelect:
		return equalSets(userAnswer, correctAnswer)
	case domain.Descriptive:
		return containsKeyTerms(userAnswer, correctAnswer)
	case domain.FillBlank:
		return matchesAccepted(userAnswer, correctAnswer)
	case domain.Sequence:
		return equalSequences(userAnswer, correctAnswer)
	case domain.Matching:
		return equalPairs(userAnswer, correctAnswer)
	default:
		return false
	}
}

const incorrectConfidence = 0.3

// Confidence scores how strongly the response indicates mastery. A correct
// answer never scores below 0.5; the expected time budget grows with
// difficulty so slow-but-correct answers on hard questions are not punished.
func (e *Evaluator) Confidence(correct bool, responseTimeSeconds float64, difficulty domain.Difficulty) float64 {
	if !correct {
		return incorrectConfidence
	}
	expected := expectedTimeSeconds(difficulty)
	c := 1.0 - (responseTimeSeconds-expected)/expected
	if c > 1.0 {
		c = 1.0
	}
	if c < 0.5 {
		c = 0.5
	}
	return c
}

// expectedTimeSeconds is the per-question time budget: 10s per level.
func expectedTimeSeconds(d domain.Difficulty) float64 {
	return 10.0 * float64(d.Ordinal())
}

func equalText(user, correct any) bool {
	u, okU := asString(user)
	c, okC := asString(correct)
	return okU && okC && u == c
}

func equalSets(user, correct any) bool {
	u, okU := asStringSlice(user)
	c, okC := asStringSlice(correct)
	if !okU || !okC || len(u) != len(c) {
		return false
	}
	seen := make(map[string]int, len(c))
	for _, v := range c {
		seen[v]++
	}
	for _, v := range u {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}

// containsKeyTerms is an approximate check: every expected key term must
// appear, case-insensitively, somewhere in the user's free text.
func containsKeyTerms(user, correct any) bool {
	text, ok := asString(user)
	if !ok {
		return false
	}
	terms, ok := asStringSlice(correct)
	if !ok {
		// A single expected phrase is also accepted.
		phrase, okS := asString(correct)
		if !okS {
			return false
		}
		terms = []string{phrase}
	}
	if len(terms) == 0 {
		return false
	}
	lowered := strings.ToLower(text)
	for _, term := range terms {
		if !strings.Contains(lowered, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func matchesAccepted(user, correct any) bool {
	u, ok := asString(user)
	if !ok {
		return false
	}
	u = strings.ToLower(u)
	if accepted, ok := asStringSlice(correct); ok {
		for _, a := range accepted {
			if u == strings.ToLower(a) {
				return true
			}
		}
		return false
	}
	c, ok := asString(correct)
	return ok && u == strings.ToLower(c)
}

func equalSequences(user, correct any) bool {
	u, okU := asStringSlice(user)
	c, okC := asStringSlice(correct)
	if !okU || !okC || len(u) != len(c) {
		return false
	}
	for i := range u {
		if u[i] != c[i] {
			return false
		}
	}
	return true
}

func equalPairs(user, correct any) bool {
	u, okU := asStringMap(user)
	c, okC := asStringMap(correct)
	if !okU || !okC || len(c) == 0 {
		return false
	}
	for k, v := range c {
		if u[k] != v {
			return false
		}
	}
	return true
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		if s {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := asString(item)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			str, ok := asString(item)
			if !ok {
				return nil, false
			}
			out[k] = str
		}
		return out, true
	default:
		return nil, false
	}
}
