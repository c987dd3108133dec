package domain

import "strings"

// Question is one multiple-choice question within a quiz attempt. The correct
// answer is always a zero-based index into Options, regardless of how the
// source encoded it (see NormalizeQuestions).
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Seconds      int      `json:"seconds"` // per-question time allotment
	Points       int      `json:"points"`  // defaults to 1 if the source omits it
}

// Category is a quiz category as reported by the content backend.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// SubmittedAnswer pairs a question with the option text the player chose.
// SelectedOption is empty when the question went unanswered (timeout).
type SubmittedAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// SubmissionResult is the authoritative scoring outcome returned by the
// remote scorer. Field names follow the backend submit contract.
type SubmissionResult struct {
	Score          string `json:"score"`
	Percentage     int    `json:"percentage"`
	CorrectAnswers int    `json:"correct_answers"`
	WrongAnswers   int    `json:"wrong_answers"`
	Comment        string `json:"comment,omitempty"`
}

// Time allotment defaults applied when the source omits a per-question timer.
const (
	StandardSeconds = 15
	LongFormSeconds = 30
)

// Prompts at least this long in a science category get the long-form allotment.
const longFormPromptLen = 120

// TimerDefaults carries the fallback allotments, overridable via config.
type TimerDefaults struct {
	Standard int
	Long     int
}

func (t TimerDefaults) standard() int {
	if t.Standard > 0 {
		return t.Standard
	}
	return StandardSeconds
}

func (t TimerDefaults) long() int {
	if t.Long > 0 {
		return t.Long
	}
	return LongFormSeconds
}

// ForQuestion picks the allotment for a question whose source supplied no
// timer: the long allotment for math-style categories and long-form science
// prompts, the standard one otherwise.
func (t TimerDefaults) ForQuestion(category, prompt string) int {
	cat := strings.ToLower(category)
	if strings.Contains(cat, "math") {
		return t.long()
	}
	if strings.Contains(cat, "science") && len(prompt) >= longFormPromptLen {
		return t.long()
	}
	return t.standard()
}
