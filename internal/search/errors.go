package search

import "github.com/rotisserie/eris"

// Sentinel errors surfaced by Service.Search. Compare with errors.Is.
var (
	// ErrAllProvidersUnavailable means every selected provider failed.
	ErrAllProvidersUnavailable = eris.New("search: all providers unavailable")
	// ErrCancelled means the caller cancelled the search.
	ErrCancelled = eris.New("search: cancelled")
	// ErrInsufficientResults is a soft warning recorded on Result, never
	// returned as the error of Search.
	ErrInsufficientResults = eris.New("search: insufficient results")
)
