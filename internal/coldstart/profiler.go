package coldstart

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"adaptive-quiz-service/internal/domain"
)

// ProfileStore abstracts how user profiles are persisted (in-memory,
// Postgres, a cached combination). Whole-record read and write; writes must
// be atomic per user.
type ProfileStore interface {
	Load(ctx context.Context, userID string) (*domain.UserProfile, error)
	Save(ctx context.Context, profile *domain.UserProfile) error
	List(ctx context.Context) ([]*domain.UserProfile, error)
}

// QuizResult is the completed-quiz signal fed into profile updates.
type QuizResult struct {
	QuizID     string
	Topic      string
	Score      float64
	Difficulty domain.Difficulty
}

// Profile-confidence schedule: starts low, earns 0.05 per completed quiz.
const (
	initialProfileConfidence = 0.3
	confidencePerQuiz        = 0.05
	maxRecommendations       = 10
	maxSubtopicsPerDomain    = 3
)

// Profiler solves the cold-start problem: it builds an initial per-user
// difficulty/domain profile from declared background alone and keeps the
// profile's difficulties and recommendations current as quizzes complete.
type Profiler struct {
	store ProfileStore
	clock func() time.Time
	rnd   *rand.Rand
}

func NewProfiler(store ProfileStore) *Profiler {
	return &Profiler{
		store: store,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewProfilerWithClock is test-only for deterministic output.
func NewProfilerWithClock(store ProfileStore, now func() time.Time, rnd *rand.Rand) *Profiler {
	return &Profiler{store: store, clock: now, rnd: rnd}
}

// CreateInitialProfile builds and persists a profile from declared
// background only; the user has no quiz history yet.
func (p *Profiler) CreateInitialProfile(ctx context.Context, userID string, bg domain.Background) (*domain.UserProfile, error) {
	base := BaseDifficultyForEducation(bg.EducationLevel)
	domains := relevantDomains(bg)
	difficulties := seedDomainDifficulties(domains, bg.PriorKnowledge, base)

	profile := &domain.UserProfile{
		UserID:             userID,
		CreatedAt:          p.clock(),
		Background:         bg,
		BaseDifficulty:     base,
		RelevantDomains:    domains,
		DomainDifficulties: difficulties,
		ProfileConfidence:  initialProfileConfidence,
		QuizHistory:        []domain.QuizSummary{},
	}
	profile.Recommendations = p.initialRecommendations(domains, difficulties)

	if err := p.store.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save initial profile: %w", err)
	}
	return profile, nil
}

// UpdateProfileWithQuiz folds one completed quiz into the profile: history,
// domain difficulty, profile confidence, and a full regeneration of the
// recommendation list.
func (p *Profiler) UpdateProfileWithQuiz(ctx context.Context, userID string, result QuizResult) (*domain.UserProfile, error) {
	profile, err := p.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	dom := MapTopicToDomain(result.Topic)
	profile.QuizHistory = append(profile.QuizHistory, domain.QuizSummary{
		QuizID:     result.QuizID,
		Topic:      result.Topic,
		Score:      result.Score,
		Difficulty: result.Difficulty,
		Timestamp:  p.clock(),
	})

	current, seeded := profile.DomainDifficulties[dom]
	if !seeded {
		// First quiz in a domain the onboarding didn't surface: adopt it.
		if dom != GeneralDomain && !profile.HasDomain(dom) {
			profile.RelevantDomains = append(profile.RelevantDomains, dom)
		}
		current = profile.BaseDifficulty
	}
	switch {
	case result.Score >= 80 && current.Ordinal() <= result.Difficulty.Ordinal():
		current = current.Promote()
	case result.Score < 40 && current.Ordinal() >= result.Difficulty.Ordinal():
		current = current.Demote()
	}
	profile.DomainDifficulties[dom] = current

	profile.ProfileConfidence += confidencePerQuiz
	if profile.ProfileConfidence > 1.0 {
		profile.ProfileConfidence = 1.0
	}

	recs, err := p.regenerateRecommendations(ctx, profile)
	if err != nil {
		return nil, err
	}
	profile.Recommendations = recs

	if err := p.store.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile update: %w", err)
	}
	return profile, nil
}

// GetSimilarUsers returns up to n user IDs ranked by cosine similarity over
// the per-domain difficulty/interest vector, excluding the user themselves.
// With fewer than two stored profiles there is nothing to compare against.
func (p *Profiler) GetSimilarUsers(ctx context.Context, userID string, n int) ([]string, error) {
	target, err := p.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) < 2 {
		return []string{}, nil
	}

	targetVec := profileVector(target)
	type scored struct {
		userID     string
		similarity float64
	}
	candidates := make([]scored, 0, len(profiles)-1)
	for _, other := range profiles {
		if other.UserID == userID {
			continue
		}
		candidates = append(candidates, scored{
			userID:     other.UserID,
			similarity: cosineSimilarity(targetVec, profileVector(other)),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].userID < candidates[j].userID
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.userID)
	}
	return out, nil
}

// relevantDomains matches interests, prior-knowledge keys and learning goals
// against the taxonomy, defaulting to mathematics and science when nothing
// matches.
func relevantDomains(bg domain.Background) []string {
	matched := make(map[string]bool)
	add := func(topic string) {
		dom := MapTopicToDomain(topic)
		if dom != GeneralDomain {
			matched[dom] = true
		}
	}
	for _, interest := range bg.Interests {
		add(interest)
	}
	for topic := range bg.PriorKnowledge {
		add(topic)
	}
	for _, goal := range bg.LearningGoals {
		add(goal)
	}
	if len(matched) == 0 {
		matched["mathematics"] = true
		matched["science"] = true
	}
	domains := make([]string, 0, len(matched))
	for dom := range matched {
		domains = append(domains, dom)
	}
	sort.Strings(domains)
	return domains
}

// seedDomainDifficulties gives every relevant domain a starting level. A
// self-reported prior-knowledge level for the domain or one of its
// subtopics overrides the education-derived base.
func seedDomainDifficulties(domains []string, priorKnowledge map[string]string, base domain.Difficulty) map[string]domain.Difficulty {
	out := make(map[string]domain.Difficulty, len(domains))
	for _, dom := range domains {
		level := base
		for topic, declared := range priorKnowledge {
			if MapTopicToDomain(topic) != dom {
				continue
			}
			if parsed, ok := domain.ParseDifficulty(strings.ToLower(declared)); ok {
				level = parsed
				break
			}
		}
		out[dom] = level
	}
	return out
}

func (p *Profiler) initialRecommendations(domains []string, difficulties map[string]domain.Difficulty) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(domains)*(1+maxSubtopicsPerDomain))
	for _, dom := range domains {
		level, ok := difficulties[dom]
		if !ok {
			level = domain.DifficultyIntermediate
		}
		recs = append(recs, domain.Recommendation{
			Type:       domain.RecommendationTopic,
			Name:       dom,
			Difficulty: level,
			Reason:     fmt.Sprintf("Based on your interests and background in %s", dom),
		})
		subtopics := Subtopics(dom)
		count := maxSubtopicsPerDomain
		if count > len(subtopics) {
			count = len(subtopics)
		}
		for _, idx := range p.rnd.Perm(len(subtopics))[:count] {
			recs = append(recs, domain.Recommendation{
				Type:         domain.RecommendationSubtopic,
				Name:         subtopics[idx],
				ParentDomain: dom,
				Difficulty:   level,
				Reason:       fmt.Sprintf("Specific topic in %s that matches your profile", dom),
			})
		}
	}
	return recs
}

// regenerateRecommendations rebuilds the list from scratch: domain-based
// recommendations first, then mastery picks from the user's own strong
// topics, then collaborative picks from similar users, deduplicated.
func (p *Profiler) regenerateRecommendations(ctx context.Context, profile *domain.UserProfile) ([]domain.Recommendation, error) {
	recs := p.initialRecommendations(profile.RelevantDomains, profile.DomainDifficulties)

	for _, topic := range repeatedStrongTopics(profile.QuizHistory, 70) {
		dom := MapTopicToDomain(topic)
		recs = append(recs, domain.Recommendation{
			Type:         domain.RecommendationMastery,
			Name:         topic,
			ParentDomain: dom,
			Difficulty:   profile.DomainDifficulty(dom).Promote(),
			Reason:       fmt.Sprintf("You've shown proficiency in %s", topic),
		})
	}

	similar, err := p.GetSimilarUsers(ctx, profile.UserID, 5)
	if err != nil {
		return nil, err
	}
	if len(similar) > 0 {
		names := make(map[string]bool, len(recs))
		for _, r := range recs {
			names[r.Name] = true
		}
		topics, err := p.strongTopicsOfUsers(ctx, similar)
		if err != nil {
			return nil, err
		}
		for _, topic := range topics {
			if names[topic] {
				continue
			}
			dom := MapTopicToDomain(topic)
			recs = append(recs, domain.Recommendation{
				Type:         domain.RecommendationCollaborative,
				Name:         topic,
				ParentDomain: dom,
				Difficulty:   profile.DomainDifficulty(dom),
				Reason:       fmt.Sprintf("Learners with a similar profile performed well in %s", topic),
			})
			names[topic] = true
		}
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs, nil
}

// repeatedStrongTopics returns topics scored at or above threshold more than
// once, most frequent first.
func repeatedStrongTopics(history []domain.QuizSummary, threshold float64) []string {
	counts := make(map[string]int)
	for _, quiz := range history {
		if quiz.Score >= threshold {
			counts[quiz.Topic]++
		}
	}
	topics := make([]string, 0, len(counts))
	for topic, n := range counts {
		if n > 1 {
			topics = append(topics, topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > 2 {
		topics = topics[:2]
	}
	return topics
}

func (p *Profiler) strongTopicsOfUsers(ctx context.Context, userIDs []string) ([]string, error) {
	counts := make(map[string]int)
	for _, uid := range userIDs {
		other, err := p.store.Load(ctx, uid)
		if err != nil {
			// A similar user vanishing mid-scan is not worth failing the update.
			continue
		}
		for _, quiz := range other.QuizHistory {
			if quiz.Score >= 70 {
				counts[quiz.Topic]++
			}
		}
	}
	topics := make([]string, 0, len(counts))
	for topic, n := range counts {
		if n > 1 {
			topics = append(topics, topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > 2 {
		topics = topics[:2]
	}
	return topics, nil
}
