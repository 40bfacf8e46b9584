package domain

import "errors"

var (
	// ErrProfileNotFound is returned when a user has not onboarded yet.
	// Callers treat this as the recoverable "no profile" case.
	ErrProfileNotFound = errors.New("user profile not found")
	// ErrDocumentNotFound indicates the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnknownQuestionType indicates a question type outside the closed set.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrModelNotFound indicates no trained model snapshot exists yet.
	ErrModelNotFound = errors.New("proficiency model not found")
)
