package domain

import "errors"

var (
	// ErrUserNotFound is returned when stats are requested for an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoQuizData indicates the quiz content source produced zero batches.
	ErrNoQuizData = errors.New("no quiz data available")
	// ErrUnknownCallback indicates an inbound button token that no variant matches.
	ErrUnknownCallback = errors.New("unknown callback action")
)
