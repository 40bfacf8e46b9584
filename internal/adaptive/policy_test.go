package adaptive

import (
	"testing"

	"adaptive-quiz-service/internal/domain"
)

func TestPolicyNeverMovesMoreThanOneStep(t *testing.T) {
	policy := NewPolicy()
	levels := []domain.Difficulty{domain.DifficultyBeginner, domain.DifficultyIntermediate, domain.DifficultyAdvanced}

	for p := 0.0; p <= 1.0; p += 0.01 {
		for _, current := range levels {
			next := policy.Next(p, current)
			delta := next.Ordinal() - current.Ordinal()
			if delta > 1 || delta < -1 {
				t.Fatalf("proficiency %.2f moved %s to %s", p, current, next)
			}
		}
	}
}

func TestPolicyRespectsBounds(t *testing.T) {
	policy := NewPolicy()

	if next := policy.Next(0.0, domain.DifficultyBeginner); next != domain.DifficultyBeginner {
		t.Fatalf("expected beginner floor, got %s", next)
	}
	if next := policy.Next(1.0, domain.DifficultyAdvanced); next != domain.DifficultyAdvanced {
		t.Fatalf("expected advanced ceiling, got %s", next)
	}
}

func TestPolicyPromotesAndDemotes(t *testing.T) {
	policy := NewPolicy()

	if next := policy.Next(0.9, domain.DifficultyIntermediate); next != domain.DifficultyAdvanced {
		t.Fatalf("expected promotion to advanced, got %s", next)
	}
	if next := policy.Next(0.65, domain.DifficultyBeginner); next != domain.DifficultyIntermediate {
		t.Fatalf("expected promotion to intermediate, got %s", next)
	}
	if next := policy.Next(0.1, domain.DifficultyAdvanced); next != domain.DifficultyIntermediate {
		t.Fatalf("expected demotion to intermediate, got %s", next)
	}
	if next := policy.Next(0.5, domain.DifficultyIntermediate); next != domain.DifficultyIntermediate {
		t.Fatalf("expected hold at intermediate, got %s", next)
	}
}
