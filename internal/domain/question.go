package domain

// QuestionType is the closed set of supported question formats.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	MultipleSelect QuestionType = "multiple-select"
	Descriptive    QuestionType = "descriptive"
	FillBlank      QuestionType = "fill-blank"
	Sequence       QuestionType = "sequence"
	Matching       QuestionType = "matching"
)

// Valid reports whether t is one of the seven known types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, MultipleSelect, Descriptive, FillBlank, Sequence, Matching:
		return true
	}
	return false
}

// Question is the content unit produced by the question-generation collaborator.
// CorrectAnswer is a string, []string, or map[string]string depending on Type;
// the evaluator owns the interpretation.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer any          `json:"correctAnswer"`
	Difficulty    Difficulty   `json:"difficulty"`
	Topic         string       `json:"topic"`
	Explanation   string       `json:"explanation,omitempty"`
}
