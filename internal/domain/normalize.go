package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// RawQuestion mirrors a question payload as the content backend ships it.
// The correct-answer field is inconsistent across backend versions: it may be
// an option index, a numeric string, or the literal option text.
type RawQuestion struct {
	ID            string          `json:"_id"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Timer         int             `json:"timer"`
	Score         int             `json:"score"`
}

// ResolveCorrectIndex normalizes a raw correct-answer reference to a
// zero-based index into options. Accepted encodings: JSON number, numeric
// string, or a string matching one of the option texts.
func ResolveCorrectIndex(raw json.RawMessage, options []string) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing correct answer")
	}

	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		if idx < 0 || idx >= len(options) {
			return 0, fmt.Errorf("correct answer index %d out of range", idx)
		}
		return idx, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("unsupported correct answer encoding %s", string(raw))
	}
	if idx, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		if idx < 0 || idx >= len(options) {
			return 0, fmt.Errorf("correct answer index %q out of range", text)
		}
		return idx, nil
	}
	for i, opt := range options {
		if opt == text {
			return i, nil
		}
	}
	// Last resort before giving up: tolerate whitespace/case drift.
	want := strings.ToLower(strings.TrimSpace(text))
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("correct answer %q does not match any option", text)
}

// NormalizeQuestions converts raw backend questions into the canonical form,
// applying the allotment defaults and the data-integrity policy: questions
// with fewer than two options are dropped, and an unresolvable correct-answer
// reference defaults to index 0. Both anomalies are logged rather than
// allowed to abort the whole session.
func NormalizeQuestions(category string, raw []RawQuestion, timers TimerDefaults, log *zap.Logger) []Question {
	if log == nil {
		log = zap.NewNop()
	}

	questions := make([]Question, 0, len(raw))
	for _, rq := range raw {
		if len(rq.Options) < 2 {
			log.Warn("dropping question with too few options",
				zap.String("category", category),
				zap.String("question", rq.ID),
				zap.Int("options", len(rq.Options)))
			continue
		}

		idx, err := ResolveCorrectIndex(rq.CorrectAnswer, rq.Options)
		if err != nil {
			log.Warn("unresolvable correct answer, defaulting to first option",
				zap.String("category", category),
				zap.String("question", rq.ID),
				zap.Error(err))
			idx = 0
		}

		seconds := rq.Timer
		if seconds <= 0 {
			seconds = timers.ForQuestion(category, rq.Question)
		}
		points := rq.Score
		if points <= 0 {
			points = 1
		}

		questions = append(questions, Question{
			ID:           rq.ID,
			Prompt:       rq.Question,
			Options:      rq.Options,
			CorrectIndex: idx,
			Seconds:      seconds,
			Points:       points,
		})
	}
	return questions
}
