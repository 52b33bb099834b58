package model

import "errors"

// Error kinds shared across the engine. Callers match them with errors.Is;
// producers wrap them with context via fmt.Errorf("...: %w", ...).
var (
	// ErrConfiguration marks a taxonomy or setup problem that must stop start-up.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidInput marks empty or too-short request text.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoClausesFound marks text that produced no qualifying clauses.
	ErrNoClausesFound = errors.New("no clauses found")
	// ErrModelUnavailable marks an embedding model that could not be loaded.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrEvaluationFailed marks a failure partway through evaluating a request.
	ErrEvaluationFailed = errors.New("evaluation failed")
	// ErrCorpusLoad marks a missing or malformed training corpus.
	ErrCorpusLoad = errors.New("corpus load failed")
)
