// Package corpus reads labeled clause corpora in the CUAD question-answering
// layout and flattens them into clause records.
package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/httpclient"
	"github.com/crimson-sun/covenant/internal/model"
)

const (
	// MaxClauseRunes caps the stored length of a clause.
	MaxClauseRunes = 5000

	UntitledDocument = "Untitled Document"
	UnknownCategory  = "Unknown Category"
)

type dataset struct {
	Data []document `json:"data"`
}

type document struct {
	Title      string      `json:"title"`
	Paragraphs []paragraph `json:"paragraphs"`
}

type paragraph struct {
	Context string     `json:"context"`
	QAs     []question `json:"qas"`
}

type question struct {
	Question  string `json:"question"`
	RiskLevel string `json:"risk_level"`
}

// Ingestor converts corpus files into clause records. Records without an
// explicit risk level get one inferred from the rule table.
type Ingestor struct {
	rules  *keywords.Table
	client *httpclient.Client
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithHTTPClient sets the client used by Fetch.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(in *Ingestor) {
		in.client = c
	}
}

// New returns an Ingestor using rules for risk inference. A nil table
// selects keywords.Default.
func New(rules *keywords.Table, opts ...Option) *Ingestor {
	if rules == nil {
		rules = keywords.Default()
	}
	in := &Ingestor{rules: rules}
	for _, opt := range opts {
		opt(in)
	}
	if in.client == nil {
		in.client = httpclient.New()
	}
	return in
}

// IsRemote reports whether location is an http(s) URL rather than a path.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "https://") || strings.HasPrefix(location, "http://")
}

// Open reads the corpus at location, downloading it when it is a URL.
func (in *Ingestor) Open(ctx context.Context, location string) ([]model.ClauseRecord, error) {
	if IsRemote(location) {
		return in.Fetch(ctx, location)
	}
	return in.Load(location)
}

// Fetch downloads and reads the corpus at url.
func (in *Ingestor) Fetch(ctx context.Context, url string) ([]model.ClauseRecord, error) {
	body, err := in.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w: %w", model.ErrCorpusLoad, err)
	}
	records, err := in.Read(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	slog.Info("corpus loaded", "url", url, "bytes", len(body), "records", len(records))
	return records, nil
}

// Load reads the corpus file at path.
func (in *Ingestor) Load(path string) ([]model.ClauseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w: %w", model.ErrCorpusLoad, err)
	}
	defer f.Close()

	records, err := in.Read(f)
	if err != nil {
		return nil, err
	}
	slog.Info("corpus loaded", "path", path, "records", len(records))
	return records, nil
}

// Read decodes a corpus from r. The top level is either an object with a
// "data" array or a bare array of documents.
func (in *Ingestor) Read(r io.Reader) ([]model.ClauseRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w: %w", model.ErrCorpusLoad, err)
	}

	var docs []document
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &docs)
	} else {
		var ds dataset
		err = json.Unmarshal(trimmed, &ds)
		docs = ds.Data
	}
	if err != nil {
		return nil, fmt.Errorf("corpus: %w: decode: %w", model.ErrCorpusLoad, err)
	}

	records, err := in.flatten(docs)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("corpus: %w: no clause records", model.ErrCorpusLoad)
	}
	return records, nil
}

type recordKey struct {
	doc, text, category string
}

func (in *Ingestor) flatten(docs []document) ([]model.ClauseRecord, error) {
	var records []model.ClauseRecord
	seen := make(map[recordKey]struct{})
	dropped := 0

	for _, doc := range docs {
		title := strings.TrimSpace(doc.Title)
		if title == "" {
			title = UntitledDocument
		}
		for _, para := range doc.Paragraphs {
			text := clean(para.Context)
			if text == "" {
				continue
			}
			for _, qa := range para.QAs {
				category := qa.Question
				if strings.TrimSpace(category) == "" {
					category = UnknownCategory
				}

				key := recordKey{title, text, category}
				if _, dup := seen[key]; dup {
					dropped++
					continue
				}
				seen[key] = struct{}{}

				risk, err := in.risk(qa.RiskLevel, category)
				if err != nil {
					return nil, fmt.Errorf("corpus: %w: document %q: %w", model.ErrCorpusLoad, title, err)
				}
				records = append(records, model.ClauseRecord{
					Text:             text,
					SourceDocumentID: title,
					Category:         category,
					Risk:             risk,
				})
			}
		}
	}
	if dropped > 0 {
		slog.Debug("duplicate clause records collapsed", "count", dropped)
	}
	return records, nil
}

// risk is the explicit level when given, otherwise inferred from the
// category alone; the context text never affects it.
func (in *Ingestor) risk(explicit, category string) (model.RiskLevel, error) {
	if strings.TrimSpace(explicit) != "" {
		return model.ParseRiskLevel(explicit)
	}
	return in.rules.InferRisk(category), nil
}

// clean trims, NFC-normalizes and truncates paragraph text.
func clean(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if utf8.RuneCountInString(s) <= MaxClauseRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxClauseRunes {
			return s[:i]
		}
		n++
	}
	return s
}
