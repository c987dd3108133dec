package domain

import "errors"

var (
	// ErrNoQuestions is returned when a category yields an empty question list.
	ErrNoQuestions = errors.New("no questions available")
	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrAnswerLocked is returned when a selection arrives after reveal.
	ErrAnswerLocked = errors.New("answer locked after reveal")
	// ErrOptionOutOfRange is returned for a selection outside the option list.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrNotRevealed is returned when advancing before the reveal step.
	ErrNotRevealed = errors.New("current question not revealed")
	// ErrSessionCompleted is returned for actions on a finished attempt.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrNoSession is returned for actions before a session has started.
	ErrNoSession = errors.New("no active session")
)
