package domain

import "time"

// Background is the declared onboarding information for a user.
type Background struct {
	EducationLevel string            `json:"educationLevel"`
	Interests      []string          `json:"interests"`
	PriorKnowledge map[string]string `json:"priorKnowledge"`
	LearningGoals  []string          `json:"learningGoals"`
}

// RecommendationType tags where a recommendation came from.
type RecommendationType string

const (
	RecommendationTopic         RecommendationType = "topic"
	RecommendationSubtopic      RecommendationType = "subtopic"
	RecommendationMastery       RecommendationType = "mastery"
	RecommendationCollaborative RecommendationType = "collaborative"
)

// Recommendation is one suggested study target. The list on a profile is
// regenerated wholesale on every update, never patched.
type Recommendation struct {
	Type         RecommendationType `json:"type"`
	Name         string             `json:"name"`
	ParentDomain string             `json:"parentDomain,omitempty"`
	Difficulty   Difficulty         `json:"difficulty"`
	Reason       string             `json:"reason"`
}

// QuizSummary is one completed quiz in a profile's history.
type QuizSummary struct {
	QuizID     string     `json:"quizId"`
	Topic      string     `json:"topic"`
	Score      float64    `json:"score"`
	Difficulty Difficulty `json:"difficulty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// UserProfile is the aggregate root for one user's adaptive state.
// Invariant: DomainDifficulties keys are a subset of RelevantDomains plus
// "general".
type UserProfile struct {
	UserID             string                `json:"userId"`
	CreatedAt          time.Time             `json:"createdAt"`
	Background         Background            `json:"background"`
	BaseDifficulty     Difficulty            `json:"baseDifficulty"`
	RelevantDomains    []string              `json:"relevantDomains"`
	DomainDifficulties map[string]Difficulty `json:"domainDifficulties"`
	Recommendations    []Recommendation      `json:"recommendations"`
	ProfileConfidence  float64               `json:"profileConfidence"`
	QuizHistory        []QuizSummary         `json:"quizHistory"`
}

// DomainDifficulty returns the user's level for a domain, falling back to the
// base difficulty when the domain has not been seeded.
func (p *UserProfile) DomainDifficulty(domain string) Difficulty {
	if d, ok := p.DomainDifficulties[domain]; ok {
		return d
	}
	if p.BaseDifficulty != 0 {
		return p.BaseDifficulty
	}
	return DifficultyIntermediate
}

// HasDomain reports whether the domain is one of the user's relevant domains.
func (p *UserProfile) HasDomain(domain string) bool {
	for _, d := range p.RelevantDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores can hand out snapshots safely.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.RelevantDomains = append([]string(nil), p.RelevantDomains...)
	out.Recommendations = append([]Recommendation(nil), p.Recommendations...)
	out.QuizHistory = append([]QuizSummary(nil), p.QuizHistory...)
	out.DomainDifficulties = make(map[string]Difficulty, len(p.DomainDifficulties))
	for k, v := range p.DomainDifficulties {
		out.DomainDifficulties[k] = v
	}
	out.Background.Interests = append([]string(nil), p.Background.Interests...)
	out.Background.LearningGoals = append([]string(nil), p.Background.LearningGoals...)
	if p.Background.PriorKnowledge != nil {
		out.Background.PriorKnowledge = make(map[string]string, len(p.Background.PriorKnowledge))
		for k, v := range p.Background.PriorKnowledge {
			out.Background.PriorKnowledge[k] = v
		}
	}
	return &out
}
