package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/model"
	"github.com/crimson-sun/covenant/internal/store/embedcache"
)

const testCorpus = `{"data": [
  {"title": "SUPPLY", "paragraphs": [
    {"context": "Either party may terminate this agreement upon written notice of material breach.",
     "qas": [{"question": "Termination For Convenience"}, {"question": "Notice Period To Terminate Renewal"}]},
    {"context": "The recipient shall keep all confidential information strictly secret.",
     "qas": [{"question": "Confidentiality", "risk_level": "Medium"}]}
  ]},
  {"title": "LICENSE", "paragraphs": [
    {"context": "Licensee may terminate the license upon written notice.",
     "qas": [{"question": "Termination For Convenience", "risk_level": "High"}]},
    {"context": "The recipient shall keep confidential information secret at all times.",
     "qas": [{"question": "Confidentiality", "risk_level": "Medium"}]},
    {"context": "Invoices are payable within thirty days and late fees apply.",
     "qas": [{"question": "Payment Terms"}]}
  ]}
]}`

// countingEmbedder counts texts passed to EmbedBatch.
type countingEmbedder struct {
	embedder.Embedder
	texts atomic.Int64
}

func (c *countingEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	c.texts.Add(int64(len(texts)))
	return c.Embedder.EmbedBatch(texts)
}

type failingEmbedder struct{ embedder.Embedder }

func (failingEmbedder) EmbedBatch([]string) ([][]float32, error) {
	return nil, errors.New("inference failed")
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cuad.json")
	if err := os.WriteFile(path, []byte(testCorpus), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func hashing(t *testing.T) *embedder.HashingEmbedder {
	t.Helper()
	emb, err := embedder.NewHashing(256)
	if err != nil {
		t.Fatal(err)
	}
	return emb
}

func TestBuild(t *testing.T) {
	emb := &countingEmbedder{Embedder: hashing(t)}
	out := filepath.Join(t.TempDir(), "artifacts", "taxonomy.json")

	path, err := Build(context.Background(), BuildConfig{
		CorpusPath:   writeCorpus(t),
		OutPath:      out,
		ClusterCount: 3,
		Seed:         42,
		Embedder:     emb,
		BatchSize:    2,
		Workers:      3,
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if path != out {
		t.Errorf("path = %q, want %q", path, out)
	}

	tax, err := taxonomy.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tax.EmbeddingModelID != emb.ModelID() {
		t.Errorf("model id = %q", tax.EmbeddingModelID)
	}
	if n := len(tax.Entries); n < 1 || n > 3 {
		t.Errorf("expected 1..3 entries, got %d", n)
	}
	members := 0
	for _, e := range tax.Entries {
		members += e.MemberCount
	}
	if members != 6 || tax.Provenance.RecordCount != 6 {
		t.Errorf("members = %d, records = %d; want 6", members, tax.Provenance.RecordCount)
	}
	if got := emb.texts.Load(); got != 5 {
		t.Errorf("embedded %d texts, want 5 distinct", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	corpusPath := writeCorpus(t)
	dir := t.TempDir()

	var artifacts [][]byte
	for i, workers := range []int{1, 4} {
		out := filepath.Join(dir, "taxonomy"+string(rune('a'+i))+".json")
		_, err := Build(context.Background(), BuildConfig{
			CorpusPath:   corpusPath,
			OutPath:      out,
			ClusterCount: 2,
			Seed:         7,
			Embedder:     hashing(t),
			BatchSize:    1,
			Workers:      workers,
		})
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		artifacts = append(artifacts, data)
	}
	if !bytes.Equal(artifacts[0], artifacts[1]) {
		t.Error("artifacts differ between sequential and parallel builds")
	}
}

func TestBuildUsesCache(t *testing.T) {
	cache, err := embedcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	corpusPath := writeCorpus(t)
	emb := &countingEmbedder{Embedder: hashing(t)}
	cfg := BuildConfig{
		CorpusPath:   corpusPath,
		OutPath:      filepath.Join(t.TempDir(), "taxonomy.json"),
		ClusterCount: 2,
		Seed:         1,
		Embedder:     emb,
		Cache:        cache,
	}
	if _, err := Build(context.Background(), cfg); err != nil {
		t.Fatalf("first Build() error: %v", err)
	}
	if _, err := Build(context.Background(), cfg); err != nil {
		t.Fatalf("second Build() error: %v", err)
	}
	if got := emb.texts.Load(); got != 5 {
		t.Errorf("embedded %d texts over two builds, want 5", got)
	}
}

func TestBuildFailuresPublishNothing(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(out string) BuildConfig
		want error
	}{
		{
			name: "missing corpus",
			cfg: func(out string) BuildConfig {
				return BuildConfig{CorpusPath: filepath.Join(t.TempDir(), "none.json"), OutPath: out, ClusterCount: 2, Embedder: hashing(t)}
			},
			want: model.ErrCorpusLoad,
		},
		{
			name: "embedding failure",
			cfg: func(out string) BuildConfig {
				return BuildConfig{CorpusPath: writeCorpus(t), OutPath: out, ClusterCount: 2, Embedder: failingEmbedder{hashing(t)}}
			},
		},
		{
			name: "no embedder",
			cfg: func(out string) BuildConfig {
				return BuildConfig{CorpusPath: writeCorpus(t), OutPath: out, ClusterCount: 2}
			},
		},
		{
			name: "zero clusters",
			cfg: func(out string) BuildConfig {
				return BuildConfig{CorpusPath: writeCorpus(t), OutPath: out, Embedder: hashing(t)}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "taxonomy.json")
			_, err := Build(context.Background(), tt.cfg(out))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
				t.Error("artifact published despite failure")
			}
		})
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "taxonomy.json")
	_, err := Build(ctx, BuildConfig{CorpusPath: writeCorpus(t), OutPath: out, ClusterCount: 2, Embedder: hashing(t)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("artifact published despite cancellation")
	}
}
