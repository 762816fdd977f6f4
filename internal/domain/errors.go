package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores,
// repositories and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Level errors
var (
	ErrTrackNotFound = errors.New("track not found")
	ErrLevelNotFound = errors.New("level not found")
)

// Progress errors
var (
	ErrProgressNotFound = errors.New("progress not found")
)

// Attempt errors
var (
	ErrAttemptNotFound = errors.New("attempt not found")
)

// Interstitial errors
var (
	// ErrMalformedQuizResponse signals corrupted quiz markup: a response
	// that is neither right nor wrong. This is an authoring bug that must
	// surface during level development, so it fails loudly.
	ErrMalformedQuizResponse = errors.New("malformed quiz response")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)
