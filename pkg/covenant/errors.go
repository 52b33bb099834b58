package covenant

import "github.com/crimson-sun/covenant/internal/model"

// Error kinds returned by this package, for use with errors.Is.
var (
	// ErrConfiguration: the taxonomy or rules file is missing or invalid.
	ErrConfiguration = model.ErrConfiguration
	// ErrInvalidInput: the text to evaluate is empty or not valid UTF-8.
	ErrInvalidInput = model.ErrInvalidInput
	// ErrNoClausesFound: no fragment of the text is long enough to be a clause.
	ErrNoClausesFound = model.ErrNoClausesFound
	// ErrModelUnavailable: the embedding model could not be loaded.
	ErrModelUnavailable = model.ErrModelUnavailable
	// ErrEvaluationFailed: the embedding model failed while classifying.
	ErrEvaluationFailed = model.ErrEvaluationFailed
	// ErrCorpusLoad: the corpus could not be read or holds no clauses.
	ErrCorpusLoad = model.ErrCorpusLoad
)
