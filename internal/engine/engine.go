package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/crimson-sun/covenant/internal/engine/classifier"
	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/engine/segmenter"
	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/metrics"
	"github.com/crimson-sun/covenant/internal/model"
)

// Config wires an Engine. With a nil Embedder the engine classifies by
// keyword rules and Taxonomy is not consulted.
type Config struct {
	Embedder     embedder.Embedder
	Taxonomy     *taxonomy.Taxonomy
	Rules        *keywords.Table  // keyword fallback table; nil selects keywords.Default
	Metrics      *metrics.Manager // optional
	MinClauseLen int              // 0 selects segmenter.MinClauseLen
}

// Engine orchestrates the segment → classify → aggregate pipeline. It holds
// no per-request state and is safe for concurrent use.
type Engine struct {
	segmenter *segmenter.Segmenter
	strategy  classifier.Strategy
	metrics   *metrics.Manager
}

// New creates an Engine. The classification strategy is fixed here for the
// engine's lifetime.
func New(cfg Config) (*Engine, error) {
	var strategy classifier.Strategy
	if cfg.Embedder != nil {
		if cfg.Taxonomy == nil {
			return nil, fmt.Errorf("engine: %w: embedder configured without a taxonomy", model.ErrConfiguration)
		}
		s, err := classifier.NewEmbedding(cfg.Embedder, cfg.Taxonomy)
		if err != nil {
			return nil, err
		}
		strategy = s
		cfg.Metrics.SetTaxonomyEntries(len(cfg.Taxonomy.Entries))
		slog.Info("embedding classifier ready",
			"model", cfg.Embedder.ModelID(),
			"entries", len(cfg.Taxonomy.Entries),
			"build_id", cfg.Taxonomy.Provenance.BuildID,
		)
	} else {
		strategy = classifier.NewKeyword(cfg.Rules)
		slog.Warn("embedding model unavailable, classifying clauses by keyword rules")
	}
	cfg.Metrics.SetFallbackActive(cfg.Embedder == nil)

	return &Engine{
		segmenter: segmenter.New(cfg.MinClauseLen),
		strategy:  strategy,
		metrics:   cfg.Metrics,
	}, nil
}

// Mode reports the active strategy: model.ModeEmbedding or model.ModeKeyword.
func (e *Engine) Mode() string {
	return e.strategy.Mode()
}

// Evaluate classifies every clause of text and aggregates a contract-level
// risk. It returns model.ErrInvalidInput for blank text,
// model.ErrNoClausesFound when no clause survives segmentation and
// model.ErrEvaluationFailed when classification fails.
func (e *Engine) Evaluate(text string) (model.ContractEvaluation, error) {
	start := time.Now()
	ev, err := e.evaluate(text)
	e.metrics.ObserveEvaluation(e.strategy.Mode(), outcome(err), time.Since(start))
	if err != nil {
		return model.ContractEvaluation{}, err
	}
	for _, c := range ev.Clauses {
		e.metrics.AddClause(c.Risk.String())
	}
	return ev, nil
}

func (e *Engine) evaluate(text string) (model.ContractEvaluation, error) {
	if !utf8.ValidString(text) {
		return model.ContractEvaluation{}, fmt.Errorf("engine: %w: text is not valid UTF-8", model.ErrInvalidInput)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ContractEvaluation{}, fmt.Errorf("engine: %w: empty text", model.ErrInvalidInput)
	}

	units, err := e.segmenter.Segment(text)
	if err != nil {
		return model.ContractEvaluation{}, err
	}
	clauses := make([]string, len(units))
	for i, u := range units {
		clauses[i] = u.Text
	}

	matches, err := e.strategy.Classify(clauses)
	if err != nil {
		return model.ContractEvaluation{}, err
	}
	if len(matches) != len(clauses) {
		return model.ContractEvaluation{}, fmt.Errorf("engine: %w: %d matches for %d clauses",
			model.ErrEvaluationFailed, len(matches), len(clauses))
	}

	evals := make([]model.ClauseEvaluation, len(clauses))
	for i, m := range matches {
		evals[i] = model.ClauseEvaluation{
			ClauseText: clauses[i],
			Label:      m.Label,
			Risk:       m.Risk,
			Similarity: m.Similarity,
			ClusterID:  m.ClusterID,
		}
	}

	ev, err := classifier.Aggregate(evals)
	if err != nil {
		return model.ContractEvaluation{}, err
	}
	ev.Mode = e.strategy.Mode()
	return ev, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, model.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, model.ErrNoClausesFound):
		return metrics.OutcomeNoClauses
	default:
		return metrics.OutcomeFailed
	}
}
