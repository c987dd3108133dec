package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"quiz-runner/internal/domain"
)

// QuestionSource fetches the normalized question list for a category.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, categoryID string) ([]domain.Question, error)
}

// ScoreSubmitter sends a completed attempt to the remote scorer. The server
// result is authoritative for display; failures degrade to the local tally.
type ScoreSubmitter interface {
	SubmitAnswers(ctx context.Context, categoryID string, answers []domain.SubmittedAnswer) (domain.SubmissionResult, error)
}

// QuestionView is the question shape exposed to the rendering layer. The
// correct index travels separately and only once revealed.
type QuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Seconds int      `json:"seconds"`
}

// View is a renderable snapshot of the attempt.
type View struct {
	Category      string                   `json:"category"`
	Index         int                      `json:"index"`
	Total         int                      `json:"total"`
	Question      *QuestionView            `json:"question,omitempty"`
	Remaining     int                      `json:"remaining"`
	Selected      int                      `json:"selected"`
	Revealed      bool                     `json:"revealed"`
	CorrectIndex  int                      `json:"correctIndex"`
	Score         int                      `json:"score"`
	Completed     bool                     `json:"completed"`
	Result        *domain.SubmissionResult `json:"result,omitempty"`
	Authoritative bool                     `json:"authoritative"`
}

// Runner drives one quiz attempt end to end: fetch, question sequencing, the
// per-question countdown, reveal/advance, and result reconciliation. One
// Runner serves one UI flow; snapshots stream through Updates.
type Runner struct {
	source    QuestionSource
	submitter ScoreSubmitter // nil when no remote scoring is configured
	log       *zap.Logger

	mu        sync.Mutex
	session   *Session
	countdown *Countdown
	armingGen int // generation of the countdown arming serving the current question; 0 when none
	category  string
	events    chan View
	closed    bool
}

func NewRunner(source QuestionSource, submitter ScoreSubmitter, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		source:    source,
		submitter: submitter,
		log:       log,
		events:    make(chan View, 8),
	}
	r.countdown = NewCountdown(r.handleTick, r.handleExpiry)
	return r
}

// Updates streams view snapshots until Close. Slow consumers only ever lag by
// the freshest snapshot; stale ones are dropped.
func (r *Runner) Updates() <-chan View {
	return r.events
}

// Start fetches the category's questions and begins a fresh attempt. On fetch
// failure no session is created and the error is returned for the caller to
// surface as a could-not-load state.
func (r *Runner) Start(ctx context.Context, categoryID string) error {
	questions, err := r.source.FetchQuestions(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("load quiz %q: %w", categoryID, err)
	}

	session, err := NewSession(categoryID, questions)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.stopCountdownLocked()
	r.session = session
	r.category = categoryID
	r.armLocked()
	r.publishLocked()
	return nil
}

// Restart discards the attempt and re-fetches the same category. Any stored
// authoritative result and the submission guard die with the old session.
func (r *Runner) Restart(ctx context.Context) error {
	r.mu.Lock()
	category := r.category
	r.mu.Unlock()
	if category == "" {
		return domain.ErrNoSession
	}
	return r.Start(ctx, category)
}

// Select records an option for the current question. State violations
// (revealed question, out-of-range index) are dropped without mutating
// anything; they are not user-facing failures.
func (r *Runner) Select(option int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return
	}
	if err := r.session.SelectAnswer(option); err != nil {
		r.log.Debug("selection rejected", zap.Int("option", option), zap.Error(err))
		return
	}
	r.publishLocked()
}

// Reveal locks in the current answer ahead of the timer and shows the
// outcome. The countdown stops first so expiry can never follow a reveal.
func (r *Runner) Reveal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.Completed() {
		return
	}
	r.stopCountdownLocked()
	r.session.Reveal()
	r.publishLocked()
}

// Next advances past a revealed question. Moving off the last question
// completes the attempt and triggers the one-shot submission.
func (r *Runner) Next(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return
	}
	if err := r.session.Advance(); err != nil {
		r.log.Debug("advance rejected", zap.Error(err))
		return
	}
	if r.session.Completed() {
		r.submitLocked(ctx)
	} else {
		r.armLocked()
	}
	r.publishLocked()
}

// Close tears the runner down: the countdown stops, no submission fires, and
// the update stream ends.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.stopCountdownLocked()
	r.closed = true
	close(r.events)
}

// armLocked starts the countdown for the question that just became current
// and records the arming generation so late callbacks from a replaced arming
// can be told apart from the live one.
func (r *Runner) armLocked() {
	if q, ok := r.session.Current(); ok {
		r.armingGen = r.countdown.Start(q.Seconds)
	}
}

// stopCountdownLocked halts the countdown and invalidates its arming. A tick
// or expiry already past the countdown's own generation check arrives here
// with the old generation and is dropped.
func (r *Runner) stopCountdownLocked() {
	r.countdown.Stop()
	r.armingGen = 0
}

func (r *Runner) handleTick(gen, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.closed || gen != r.armingGen {
		return
	}
	r.publishLocked()
}

// handleExpiry is the timeout path: equivalent to submitting no selection,
// followed immediately by reveal. An expiry from anything but the current
// arming is stale (the session it was armed for is gone) and must not touch
// the session that replaced it.
func (r *Runner) handleExpiry(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.closed || gen != r.armingGen {
		return
	}
	if r.session.Completed() || r.session.Revealed() {
		return
	}
	r.armingGen = 0
	r.session.Reveal()
	r.publishLocked()
}

// submitLocked sends the answers to the scorer at most once per session. The
// call runs off the event path; the completed view shows the local tally
// until (and unless) the authoritative result lands.
func (r *Runner) submitLocked(ctx context.Context) {
	if r.submitter == nil {
		return
	}
	if !r.session.MarkSubmitted() {
		return
	}

	session := r.session
	answers := session.Answers()
	category := r.category
	go func() {
		res, err := r.submitter.SubmitAnswers(ctx, category, answers)
		r.mu.Lock()
		defer r.mu.Unlock()
		// The attempt may have been restarted or torn down while the
		// request was in flight; a stale result must not leak across.
		if r.closed || r.session != session {
			return
		}
		if err != nil {
			r.log.Warn("score submission failed, showing local tally",
				zap.String("category", category), zap.Error(err))
			return
		}
		session.SetResult(res)
		r.publishLocked()
	}()
}

func (r *Runner) publishLocked() {
	if r.closed {
		return
	}
	v := r.snapshotLocked()
	select {
	case r.events <- v:
	default:
		// Drop the stale snapshot so a slow reader always sees the latest.
		select {
		case <-r.events:
		default:
		}
		r.events <- v
	}
}

func (r *Runner) snapshotLocked() View {
	s := r.session
	v := View{
		Category:     r.category,
		Selected:     unanswered,
		CorrectIndex: unanswered,
	}
	if s == nil {
		return v
	}
	v.Index = s.Index()
	v.Total = s.Len()
	v.Score = s.Score()
	v.Completed = s.Completed()
	v.Revealed = s.Revealed()

	if q, ok := s.Current(); ok {
		v.Question = &QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: q.Options,
			Seconds: q.Seconds,
		}
		v.Selected = s.Selected()
		// Remaining stays zero once revealed; the countdown's last pre-stop
		// value would read as time still running.
		if s.Revealed() {
			v.CorrectIndex = q.CorrectIndex
		} else {
			v.Remaining = r.countdown.Remaining()
		}
	}
	if s.Completed() {
		res, authoritative := s.Result()
		v.Result = &res
		v.Authoritative = authoritative
	}
	return v
}
