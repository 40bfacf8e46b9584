package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"adaptive-quiz-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// DocumentLoader fetches the document catalog from a backing store.
type DocumentLoader interface {
	LoadDocuments(ctx context.Context) ([]domain.Document, error)
}

// DocumentRepository caches the catalog with TTL to avoid repeated DB hits
// on every recommendation request.
type DocumentRepository struct {
	loader DocumentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cache     []domain.Document
	expiresAt time.Time
}

func NewDocumentRepository(loader DocumentLoader, ttl time.Duration) *DocumentRepository {
	return &DocumentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cache != nil && r.expiresAt.After(now) {
		docs := r.cache
		r.mu.RUnlock()
		return docs, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cache != nil && r.expiresAt.After(now) {
			docs := r.cache
			r.mu.RUnlock()
			return docs, nil
		}
		r.mu.RUnlock()

		docs, err := r.loader.LoadDocuments(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache = docs
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Document), nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, documentID string) (domain.Document, error) {
	docs, err := r.ListDocuments(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	for _, doc := range docs {
		if doc.ID == documentID {
			return doc, nil
		}
	}
	return domain.Document{}, domain.ErrDocumentNotFound
}

func (r *DocumentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticDocumentLoader is a simple loader backed by an in-memory slice
// (useful for tests/demos).
type StaticDocumentLoader struct {
	documents []domain.Document
}

func NewStaticDocumentLoader(documents []domain.Document) *StaticDocumentLoader {
	return &StaticDocumentLoader{documents: documents}
}

func (l *StaticDocumentLoader) LoadDocuments(_ context.Context) ([]domain.Document, error) {
	return append([]domain.Document(nil), l.documents...), nil
}
