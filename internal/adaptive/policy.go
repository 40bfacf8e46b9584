package adaptive

import "adaptive-quiz-service/internal/domain"

// Policy decides the next difficulty from estimated proficiency. It is a
// bounded state machine: one step per call at most, beginner is the floor
// and advanced the ceiling, so a single noisy estimate can never cause a
// jump.
type Policy struct {
	confidenceThreshold float64
	learningRate        float64
}

func NewPolicy() *Policy {
	return &Policy{confidenceThreshold: 0.7, learningRate: 0.1}
}

// Next returns the difficulty to present next. Thresholds shift with the
// current level: promotion needs 0.6 at beginner and 0.7 at intermediate,
// demotion triggers below 0.3 at intermediate and 0.4 at advanced.
func (p *Policy) Next(proficiency float64, current domain.Difficulty) domain.Difficulty {
	level := float64(current.Ordinal())
	promoteAt := p.confidenceThreshold + (level-2)*p.learningRate
	demoteAt := promoteAt - 4*p.learningRate

	if proficiency >= promoteAt {
		return current.Promote()
	}
	if proficiency < demoteAt {
		return current.Demote()
	}
	return current
}
