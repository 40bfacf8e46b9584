package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/domain"
)

// DocumentRepository loads study-material candidates (from cache/backing store).
type DocumentRepository interface {
	GetDocument(ctx context.Context, documentID string) (domain.Document, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// SubmitResult is the outcome of one answered question: the immutable
// record, the proficiency estimate it produced, and the difficulty the
// question-generation collaborator should use next for this topic.
type SubmitResult struct {
	Record         domain.AnswerRecord `json:"record"`
	Proficiency    float64             `json:"proficiency"`
	NextDifficulty domain.Difficulty   `json:"nextDifficulty"`
	// ModelFallback notes that the regression model was unavailable and the
	// estimate leaned on the heuristic-only path.
	ModelFallback bool `json:"modelFallback,omitempty"`
}

// LearningService contains the adaptive-engine use cases. Profile
// read-modify-write is serialized per user so a submission from one device
// cannot overwrite a concurrent update from another.
type LearningService struct {
	profiles  coldstart.ProfileStore
	profiler  *coldstart.Profiler
	documents DocumentRepository
	history   HistoryStore
	models    ModelStore
	trainer   *Trainer
	notifier  *ProfileNotifier

	evaluator *adaptive.Evaluator
	extractor *adaptive.FeatureExtractor
	estimator *adaptive.Estimator
	policy    *adaptive.Policy
	clock     func() time.Time

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewLearningService(profiles coldstart.ProfileStore, profiler *coldstart.Profiler, documents DocumentRepository, history HistoryStore, models ModelStore, trainer *Trainer) *LearningService {
	return &LearningService{
		profiles:  profiles,
		profiler:  profiler,
		documents: documents,
		history:   history,
		models:    models,
		trainer:   trainer,
		notifier:  NewProfileNotifier(),
		evaluator: adaptive.NewEvaluator(),
		extractor: adaptive.NewFeatureExtractor(),
		estimator: adaptive.NewEstimator(),
		policy:    adaptive.NewPolicy(),
		clock:     time.Now,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Onboard creates the cold-start profile for a new user.
func (s *LearningService) Onboard(ctx context.Context, userID string, background domain.Background) (*domain.UserProfile, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	profile, err := s.profiler.CreateInitialProfile(ctx, userID, background)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(profile.Clone())
	return profile, nil
}

// SubmitAnswer evaluates one answer, folds it into the user's history and
// training data, re-estimates proficiency for the topic, and moves the
// topic's difficulty state through the policy.
func (s *LearningService) SubmitAnswer(ctx context.Context, userID string, question domain.Question, userAnswer any, responseTimeSeconds float64) (SubmitResult, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}

	record := s.evaluator.Evaluate(question, userAnswer, responseTimeSeconds)
	if err := s.history.AppendAnswer(ctx, userID, question.Topic, record); err != nil {
		return SubmitResult{}, err
	}

	answers, err := s.history.ListAnswers(ctx, userID, question.Topic)
	if err != nil {
		return SubmitResult{}, err
	}

	perf, confidences := summarizeAnswers(answers)
	features := s.extractor.Extract(answers, confidences, s.clock())

	dom := coldstart.MapTopicToDomain(question.Topic)
	current := profile.DomainDifficulty(dom)

	proficiency, modelErr := s.estimator.Estimate(perf, current, quizRecords(profile.QuizHistory, dom), features, s.loadPredictor(ctx, userID, question.Topic))

	next := s.policy.Next(proficiency, current)
	if next != current {
		if profile.DomainDifficulties == nil {
			profile.DomainDifficulties = make(map[string]domain.Difficulty)
		}
		if dom != coldstart.GeneralDomain && !profile.HasDomain(dom) {
			profile.RelevantDomains = append(profile.RelevantDomains, dom)
		}
		profile.DomainDifficulties[dom] = next
		if err := s.profiles.Save(ctx, profile); err != nil {
			return SubmitResult{}, err
		}
		s.notifier.Publish(profile.Clone())
	}

	point := domain.ProficiencyDataPoint{
		Features:  features,
		Score:     s.estimator.PerformanceScore(perf),
		Timestamp: s.clock(),
	}
	if err := s.history.AppendDataPoint(ctx, userID, question.Topic, point); err != nil {
		return SubmitResult{}, err
	}
	s.trainer.TrainAsync(userID, question.Topic)

	return SubmitResult{
		Record:         record,
		Proficiency:    proficiency,
		NextDifficulty: next,
		ModelFallback:  modelErr != nil,
	}, nil
}

// CompleteQuiz folds a finished quiz into the user's profile.
func (s *LearningService) CompleteQuiz(ctx context.Context, userID string, result coldstart.QuizResult) (*domain.UserProfile, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	profile, err := s.profiler.UpdateProfileWithQuiz(ctx, userID, result)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(profile.Clone())
	return profile, nil
}

// Profile returns the user's current profile snapshot.
func (s *LearningService) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return s.profiles.Load(ctx, userID)
}

// Recommendations ranks the document catalog for the user.
func (s *LearningService) Recommendations(ctx context.Context, userID string, n int) ([]domain.Document, error) {
	docs, err := s.documents.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	return s.profiler.RecommendContent(ctx, userID, docs, n)
}

// SimilarUsers exposes the collaborative-filtering neighbor lookup.
func (s *LearningService) SimilarUsers(ctx context.Context, userID string, n int) ([]string, error) {
	return s.profiler.GetSimilarUsers(ctx, userID, n)
}

// Subscribe returns a channel receiving the user's profile after every
// mutation. The caller must invoke the cancel function to avoid leaks.
func (s *LearningService) Subscribe(userID string) (<-chan *domain.UserProfile, func()) {
	return s.notifier.Subscribe(userID)
}

// lockUser serializes read-modify-write cycles on one user's profile.
func (s *LearningService) lockUser(userID string) func() {
	s.mu.Lock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// loadPredictor returns the latest trained snapshot, or nil when none exists
// so the estimator falls back to its neutral prior.
func (s *LearningService) loadPredictor(ctx context.Context, userID, topic string) adaptive.Predictor {
	model, err := s.models.LoadModel(ctx, userID, topic)
	if err != nil || model == nil {
		return nil
	}
	return snapshotPredictor{model: model}
}

type snapshotPredictor struct {
	model *adaptive.Model
}

func (p snapshotPredictor) PredictProficiency(features domain.FeatureVector) (float64, error) {
	return p.model.Predict(features), nil
}

// summarizeAnswers aggregates a topic's answer history into the performance
// metrics the estimator consumes.
func summarizeAnswers(answers []domain.AnswerRecord) (domain.Performance, []float64) {
	if len(answers) == 0 {
		return domain.Performance{ConfidenceScore: 0.5}, nil
	}
	var correct int
	var timeSum float64
	confidences := make([]float64, 0, len(answers))
	for _, a := range answers {
		if a.Correct {
			correct++
		}
		timeSum += a.ResponseTimeSeconds
		confidences = append(confidences, a.Confidence)
	}
	total := float64(len(answers))
	var confSum float64
	for _, c := range confidences {
		confSum += c
	}
	return domain.Performance{
		CorrectRatio:           float64(correct) / total,
		AvgResponseTimeSeconds: timeSum / total,
		ConfidenceScore:        confSum / total,
	}, confidences
}

// quizRecords converts a profile's quiz history for one domain into the
// estimator's view of prior quizzes.
func quizRecords(history []domain.QuizSummary, dom string) []adaptive.QuizRecord {
	records := make([]adaptive.QuizRecord, 0, len(history))
	for _, quiz := range history {
		if coldstart.MapTopicToDomain(quiz.Topic) != dom {
			continue
		}
		records = append(records, adaptive.QuizRecord{
			CorrectRatio: quiz.Score / 100.0,
			Timestamp:    quiz.Timestamp,
		})
	}
	return records
}

// IsProfileMissing reports whether err is the recoverable "user has not
// onboarded" case.
func IsProfileMissing(err error) bool {
	return errors.Is(err, domain.ErrProfileNotFound)
}
