package coldstart

import (
	"math"

	"adaptive-quiz-service/internal/domain"
)

// profileVector encodes a profile over the fixed domain ordering: one
// difficulty ordinal per domain followed by one declared-interest flag per
// domain. Consistent ordering is what makes vectors comparable across users.
func profileVector(p *domain.UserProfile) []float64 {
	domains := DomainList()
	features := make([]float64, 0, 2*len(domains))
	for _, dom := range domains {
		diff, ok := p.DomainDifficulties[dom]
		if !ok {
			diff = domain.DifficultyIntermediate
		}
		features = append(features, float64(diff.Ordinal()))
	}
	interests := make(map[string]bool, len(p.Background.Interests))
	for _, i := range p.Background.Interests {
		interests[MapTopicToDomain(i)] = true
	}
	for _, dom := range domains {
		if interests[dom] {
			features = append(features, 1)
		} else {
			features = append(features, 0)
		}
	}
	return features
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
