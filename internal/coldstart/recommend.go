package coldstart

import (
	"context"
	"sort"

	"adaptive-quiz-service/internal/domain"
)

// Difficulty-fit boosts for document scoring. Exact matches win; one level
// harder is a gentle stretch, anything further is left unboosted.
const (
	exactMatchBoost = 1.3
	stretchBoost    = 1.1
)

// RecommendContent ranks candidate documents for a user. Scoring is
// deterministic (tag/domain overlap plus difficulty-fit boosts, ties broken
// by document ID); randomness only pads the tail when fewer than n
// documents score at all.
func (p *Profiler) RecommendContent(ctx context.Context, userID string, available []domain.Document, n int) ([]domain.Document, error) {
	profile, err := p.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(available) == 0 {
		return []domain.Document{}, nil
	}

	type scoredDoc struct {
		doc   domain.Document
		score float64
	}
	scored := make([]scoredDoc, 0, len(available))
	var unscored []domain.Document
	for _, doc := range available {
		s := documentScore(profile, doc)
		if s > 0 {
			scored = append(scored, scoredDoc{doc: doc, score: s})
		} else {
			unscored = append(unscored, doc)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].doc.ID < scored[j].doc.ID
	})

	out := make([]domain.Document, 0, n)
	for _, s := range scored {
		if len(out) == n {
			break
		}
		out = append(out, s.doc)
	}
	if len(out) < n && len(unscored) > 0 {
		for _, idx := range p.rnd.Perm(len(unscored)) {
			if len(out) == n {
				break
			}
			out = append(out, unscored[idx])
		}
	}
	return out, nil
}

// documentScore counts how many of the document's tags (and its topic's
// domain) fall inside the user's relevant domains, then applies the
// difficulty-fit boost against the user's level for the document's domain.
func documentScore(profile *domain.UserProfile, doc domain.Document) float64 {
	docDomain := MapTopicToDomain(doc.Topic)
	overlap := 0.0
	if profile.HasDomain(docDomain) {
		overlap++
	}
	for _, tag := range doc.Tags {
		if profile.HasDomain(MapTopicToDomain(tag)) {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	userLevel := profile.DomainDifficulty(docDomain)
	switch doc.Difficulty.Ordinal() - userLevel.Ordinal() {
	case 0:
		overlap *= exactMatchBoost
	case 1:
		overlap *= stretchBoost
	}
	return overlap
}
