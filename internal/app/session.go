package app

import (
	"fmt"
	"math"

	"quiz-runner/internal/domain"
)

// unanswered marks an answer slot with no recorded selection.
const unanswered = -1

// Session holds the state of one quiz attempt: the fixed question list, the
// current pointer, recorded answers, and the locally tallied score. It is not
// safe for concurrent use; the Runner serializes access.
type Session struct {
	category  string
	questions []domain.Question

	current   int
	answers   []int
	revealed  bool
	scored    []bool
	score     int
	completed bool

	submitted bool
	result    *domain.SubmissionResult
}

// NewSession creates an attempt over the given questions. At least one
// question is required; callers should surface an empty-quiz state otherwise.
func NewSession(category string, questions []domain.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	answers := make([]int, len(questions))
	for i := range answers {
		answers[i] = unanswered
	}
	return &Session{
		category:  category,
		questions: questions,
		answers:   answers,
		scored:    make([]bool, len(questions)),
	}, nil
}

// SelectAnswer records the chosen option for the current question. Rejected
// once the question is revealed or when the index is out of bounds; neither
// score nor pointer change.
func (s *Session) SelectAnswer(option int) error {
	if s.completed {
		return domain.ErrSessionCompleted
	}
	if s.revealed {
		return domain.ErrAnswerLocked
	}
	if option < 0 || option >= len(s.questions[s.current].Options) {
		return domain.ErrOptionOutOfRange
	}
	s.answers[s.current] = option
	return nil
}

// Reveal locks the current question and tallies it. A missing selection is
// allowed (timeout path) and counts as wrong. Revealing twice is a no-op; the
// per-question scored guard keeps the increment from ever happening twice.
func (s *Session) Reveal() {
	if s.completed || s.revealed {
		return
	}
	s.revealed = true
	if !s.scored[s.current] && s.answers[s.current] == s.questions[s.current].CorrectIndex {
		s.scored[s.current] = true
		s.score++
	}
}

// Advance moves to the next question, or completes the attempt when the
// pointer already sits on the last one. Only valid after Reveal.
func (s *Session) Advance() error {
	if s.completed {
		return domain.ErrSessionCompleted
	}
	if !s.revealed {
		return domain.ErrNotRevealed
	}
	if s.current == len(s.questions)-1 {
		s.completed = true
		return nil
	}
	s.current++
	s.revealed = false
	return nil
}

// Current returns the question under the pointer; ok is false once completed.
func (s *Session) Current() (domain.Question, bool) {
	if s.completed {
		return domain.Question{}, false
	}
	return s.questions[s.current], true
}

func (s *Session) Category() string { return s.category }
func (s *Session) Index() int       { return s.current }
func (s *Session) Len() int         { return len(s.questions) }
func (s *Session) Score() int       { return s.score }
func (s *Session) Revealed() bool   { return s.revealed }
func (s *Session) Completed() bool  { return s.completed }

// Selected returns the recorded option for the current question, or -1.
func (s *Session) Selected() int {
	return s.answers[s.current]
}

// Answers resolves every recorded selection to its option text, in question
// order. Unanswered slots (including timeouts) yield an empty option.
func (s *Session) Answers() []domain.SubmittedAnswer {
	out := make([]domain.SubmittedAnswer, len(s.questions))
	for i, q := range s.questions {
		chosen := ""
		if idx := s.answers[i]; idx != unanswered {
			chosen = q.Options[idx]
		}
		out[i] = domain.SubmittedAnswer{QuestionID: q.ID, SelectedOption: chosen}
	}
	return out
}

// MarkSubmitted flips the one-shot submission guard. It returns false if the
// attempt was already submitted, making duplicate triggers no-ops.
func (s *Session) MarkSubmitted() bool {
	if s.submitted {
		return false
	}
	s.submitted = true
	return true
}

// SetResult stores the authoritative server result for display.
func (s *Session) SetResult(res domain.SubmissionResult) {
	s.result = &res
}

// Result returns the result to display: the authoritative server outcome if
// it arrived, otherwise the local tally. The local tally is an approximation;
// the server remains the source of truth whenever reachable.
func (s *Session) Result() (domain.SubmissionResult, bool) {
	if s.result != nil {
		return *s.result, true
	}
	return s.LocalResult(), false
}

// LocalResult derives a fallback result from the client-side tally.
func (s *Session) LocalResult() domain.SubmissionResult {
	n := len(s.questions)
	pct := int(math.Round(float64(s.score) * 100 / float64(n)))
	return domain.SubmissionResult{
		Score:          fmt.Sprintf("%d/%d", s.score, n),
		Percentage:     pct,
		CorrectAnswers: s.score,
		WrongAnswers:   n - s.score,
	}
}
