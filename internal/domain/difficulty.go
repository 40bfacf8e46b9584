package domain

// Difficulty is the ordered three-level scale used across the engine.
// The ordinal form (1-3) is only exposed through Ordinal/FromOrdinal so
// arithmetic and display never mix representations.
type Difficulty int

const (
	DifficultyBeginner Difficulty = iota + 1
	DifficultyIntermediate
	DifficultyAdvanced
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	default:
		return "intermediate"
	}
}

// Ordinal returns the numeric level (beginner=1 .. advanced=3).
func (d Difficulty) Ordinal() int {
	if d < DifficultyBeginner {
		return int(DifficultyBeginner)
	}
	if d > DifficultyAdvanced {
		return int(DifficultyAdvanced)
	}
	return int(d)
}

// DifficultyFromOrdinal clamps n into the valid range.
func DifficultyFromOrdinal(n int) Difficulty {
	if n <= int(DifficultyBeginner) {
		return DifficultyBeginner
	}
	if n >= int(DifficultyAdvanced) {
		return DifficultyAdvanced
	}
	return Difficulty(n)
}

// ParseDifficulty maps a label to a level; unknown labels report ok=false.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch s {
	case "beginner":
		return DifficultyBeginner, true
	case "intermediate":
		return DifficultyIntermediate, true
	case "advanced":
		return DifficultyAdvanced, true
	default:
		return DifficultyIntermediate, false
	}
}

// Promote moves one level up, saturating at advanced.
func (d Difficulty) Promote() Difficulty {
	return DifficultyFromOrdinal(d.Ordinal() + 1)
}

// Demote moves one level down, saturating at beginner.
func (d Difficulty) Demote() Difficulty {
	return DifficultyFromOrdinal(d.Ordinal() - 1)
}

// MarshalText stores difficulties as labels in JSON profiles.
func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, _ := ParseDifficulty(string(text))
	*d = parsed
	return nil
}
