package embedder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/crimson-sun/covenant/internal/model"
)

func TestMeanPool(t *testing.T) {
	// 1 sample, seqLen=3, dim=2; only the first two tokens are real.
	hidden := []float32{1, 2, 3, 4, 5, 6}
	mask := []int64{1, 1, 0}

	out := meanPool(hidden, mask, 1, 3, 2)

	if len(out) != 2 || !closeEnough(out[0], 2) || !closeEnough(out[1], 3) {
		t.Errorf("expected [2 3], got %v", out)
	}
}

func TestMeanPoolBatch(t *testing.T) {
	hidden := []float32{10, 20, 30, 40, 5, 15, 0, 0}
	mask := []int64{1, 1, 1, 0}

	out := meanPool(hidden, mask, 2, 2, 2)

	want := []float32{20, 30, 5, 15}
	for i := range want {
		if !closeEnough(out[i], want[i]) {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}
}

func TestMeanPoolAllPadding(t *testing.T) {
	out := meanPool([]float32{1, 2, 3, 4}, []int64{0, 0}, 1, 2, 2)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %f, want 0", i, v)
		}
	}
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	if !closeEnough(v[0], 0.6) || !closeEnough(v[1], 0.8) {
		t.Errorf("normalize = %v, want [0.6 0.8]", v)
	}
	zero := normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

// writeVocab writes a tiny WordPiece vocabulary and returns its path.
func writeVocab(t *testing.T) string {
	t.Helper()
	tokens := []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "the", "party", "shall", "pay", "##s", "fee", ".", "cafe", ","}
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(tokens, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVocabLoad(t *testing.T) {
	v, err := loadVocab(writeVocab(t))
	if err != nil {
		t.Fatalf("loadVocab() error: %v", err)
	}
	if v.size != 13 || v.unkID != 1 || v.clsID != 2 || v.sepID != 3 {
		t.Errorf("unexpected vocab: size=%d unk=%d cls=%d sep=%d", v.size, v.unkID, v.clsID, v.sepID)
	}
	if v.lookup("nonexistent") != v.unkID {
		t.Error("unknown token should map to [UNK]")
	}
}

func TestVocabMissingSpecial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	os.WriteFile(path, []byte("[PAD]\n[UNK]\nhello\n"), 0o644)
	if _, err := loadVocab(path); err == nil {
		t.Fatal("expected error for vocab without [CLS]/[SEP]")
	}
}

func TestTokenizerEncode(t *testing.T) {
	tok, err := newTokenizer(writeVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"empty", "", []int64{2, 3}},
		{"words and punctuation", "The party shall pay fees.", []int64{2, 4, 5, 6, 7, 9, 8, 10, 3}},
		{"subword", "Pays", []int64{2, 7, 8, 3}},
		{"accents stripped", "Café,", []int64{2, 11, 12, 3}},
		{"unknown word", "zzz", []int64{2, 1, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tok.encode(tc.text); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("encode(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestTokenizerTruncates(t *testing.T) {
	tok, err := newTokenizer(writeVocab(t))
	if err != nil {
		t.Fatal(err)
	}
	ids := tok.encode(strings.Repeat("the ", 1000))
	if len(ids) != maxSeqLen {
		t.Fatalf("len = %d, want %d", len(ids), maxSeqLen)
	}
	if ids[0] != 2 || ids[len(ids)-1] != 3 {
		t.Errorf("truncated sequence must keep [CLS] and [SEP]: %v...%v", ids[:2], ids[len(ids)-2:])
	}
}

func TestEncodeBatchPadsToLongest(t *testing.T) {
	tok, err := newTokenizer(writeVocab(t))
	if err != nil {
		t.Fatal(err)
	}
	b := tok.encodeBatch([]string{"the", "the party shall"})
	if b.batchSize != 2 || b.seqLen != 5 {
		t.Fatalf("batchSize=%d seqLen=%d, want 2 and 5", b.batchSize, b.seqLen)
	}
	wantIDs := []int64{2, 4, 3, 0, 0, 2, 4, 5, 6, 3}
	wantMask := []int64{1, 1, 1, 0, 0, 1, 1, 1, 1, 1}
	if !reflect.DeepEqual(b.inputIDs, wantIDs) {
		t.Errorf("inputIDs = %v, want %v", b.inputIDs, wantIDs)
	}
	if !reflect.DeepEqual(b.attentionMask, wantMask) {
		t.Errorf("attentionMask = %v, want %v", b.attentionMask, wantMask)
	}
	for _, v := range b.tokenTypeIDs {
		if v != 0 {
			t.Fatal("tokenTypeIDs must be all zero")
		}
	}
}

// writeSafetensors writes a single-tensor F32 safetensors file.
func writeSafetensors(t *testing.T, name string, shape []int, values []float32) string {
	t.Helper()
	header := fmt.Sprintf(`{"%s":{"dtype":"F32","shape":[%d,%d],"data_offsets":[0,%d]}}`,
		name, shape[0], shape[1], len(values)*4)
	buf := make([]byte, 8, 8+len(header)+len(values)*4)
	binary.LittleEndian.PutUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProjection(t *testing.T) {
	// 2x3 matrix: rows [1 0 0] and [0 1 1].
	path := writeSafetensors(t, "linear.weight", []int{2, 3}, []float32{1, 0, 0, 0, 1, 1})

	proj, err := loadProjection(path)
	if err != nil {
		t.Fatalf("loadProjection() error: %v", err)
	}
	if proj.inDim != 3 || proj.outDim != 2 {
		t.Fatalf("dims = %dx%d, want 2x3", proj.outDim, proj.inDim)
	}
	out := proj.apply([]float32{2, 3, 4})
	if !closeEnough(out[0], 2) || !closeEnough(out[1], 7) {
		t.Errorf("apply = %v, want [2 7]", out)
	}
}

func TestLoadProjectionErrors(t *testing.T) {
	wrongName := writeSafetensors(t, "other.weight", []int{1, 1}, []float32{1})
	if _, err := loadProjection(wrongName); err == nil {
		t.Error("expected error for missing linear.weight")
	}

	tiny := filepath.Join(t.TempDir(), "tiny.safetensors")
	os.WriteFile(tiny, []byte{1, 2}, 0o644)
	if _, err := loadProjection(tiny); err == nil {
		t.Error("expected error for truncated file")
	}
}

func TestLoadOptionalProjectionAbsent(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.safetensors")} {
		proj, err := loadOptionalProjection(path)
		if err != nil || proj != nil {
			t.Errorf("loadOptionalProjection(%q) = %v, %v; want nil, nil", path, proj, err)
		}
	}
}

func TestNewONNXUnavailable(t *testing.T) {
	cfg := ConfigFromDir(filepath.Join(t.TempDir(), "no-model"), "legal-bert")
	_, err := NewONNX(cfg)
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestHashingDeterministic(t *testing.T) {
	h, err := NewHashing(64)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := h.Embed("The Supplier shall indemnify the Customer.")
	b, _ := h.Embed("the supplier shall indemnify the customer")
	if !reflect.DeepEqual(a, b) {
		t.Error("case and punctuation must not change the embedding")
	}
	if len(a) != 64 || h.Dim() != 64 || h.ModelID() != "hashing-v1/64" {
		t.Errorf("unexpected shape: len=%d dim=%d id=%s", len(a), h.Dim(), h.ModelID())
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2 = %f, want 1", norm)
	}
}

func TestHashingBatchMatchesSingle(t *testing.T) {
	h, _ := NewHashing(32)
	texts := []string{"payment of fees", "termination for convenience", ""}
	batch, err := h.EmbedBatch(texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(batch))
	}
	for i, text := range texts {
		single, err := h.Embed(text)
		if err != nil {
			t.Fatalf("Embed(%q) error: %v", text, err)
		}
		if len(batch[i]) != h.Dim() {
			t.Errorf("batch[%d] has dim %d, want %d", i, len(batch[i]), h.Dim())
		}
		if !reflect.DeepEqual(batch[i], single) {
			t.Errorf("batch[%d] differs from Embed(%q)", i, text)
		}
	}
}

func TestNewHashingInvalidDim(t *testing.T) {
	if _, err := NewHashing(0); err == nil {
		t.Error("expected error for zero dim")
	}
}

// countingEmbedder records the texts it was asked to embed.
type countingEmbedder struct {
	mu    sync.Mutex
	seen  []string
	fail  string
	inner *HashingEmbedder
}

func (c *countingEmbedder) Embed(text string) ([]float32, error) { return c.inner.Embed(text) }
func (c *countingEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.seen = append(c.seen, texts...)
	c.mu.Unlock()
	for _, t := range texts {
		if t == c.fail {
			return nil, fmt.Errorf("cannot embed %q", t)
		}
	}
	return c.inner.EmbedBatch(texts)
}
func (c *countingEmbedder) ModelID() string { return c.inner.ModelID() }
func (c *countingEmbedder) Dim() int        { return c.inner.Dim() }
func (c *countingEmbedder) Close() error    { return nil }

func newCounting() *countingEmbedder {
	h, _ := NewHashing(16)
	return &countingEmbedder{inner: h}
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	texts := make([]string, 23)
	for i := range texts {
		texts[i] = fmt.Sprintf("clause number %d about payment", i)
	}
	emb := newCounting()

	got, err := EmbedAll(context.Background(), emb, texts, 4, 3)
	if err != nil {
		t.Fatalf("EmbedAll() error: %v", err)
	}
	want, _ := emb.inner.EmbedBatch(texts)
	if !reflect.DeepEqual(got, want) {
		t.Error("parallel result differs from sequential embedding")
	}
	if len(emb.seen) != len(texts) {
		t.Errorf("embedded %d texts, want %d", len(emb.seen), len(texts))
	}
}

func TestEmbedAllPropagatesError(t *testing.T) {
	emb := newCounting()
	emb.fail = "bad"
	_, err := EmbedAll(context.Background(), emb, []string{"a", "b", "bad", "c"}, 1, 2)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedAllEmpty(t *testing.T) {
	out, err := EmbedAll(context.Background(), newCounting(), nil, 8, 2)
	if err != nil || len(out) != 0 {
		t.Errorf("EmbedAll(nil) = %v, %v", out, err)
	}
}

// memCache is an in-memory Cache.
type memCache struct {
	data      map[string][]float32
	lookupErr error
}

func (m *memCache) Lookup(_ context.Context, modelID string, keys []string) (map[string][]float32, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	out := make(map[string][]float32)
	for _, k := range keys {
		if v, ok := m.data[modelID+"/"+k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memCache) Store(_ context.Context, modelID string, vecs map[string][]float32) error {
	for k, v := range vecs {
		m.data[modelID+"/"+k] = v
	}
	return nil
}

func TestCachedEmbedsOnlyMisses(t *testing.T) {
	inner := newCounting()
	cache := &memCache{data: make(map[string][]float32)}
	c := WithCache(inner, cache)

	first, err := c.EmbedBatch([]string{"alpha clause", "beta clause"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.EmbedBatch([]string{"beta clause", "gamma clause", "alpha clause"})
	if err != nil {
		t.Fatal(err)
	}

	wantSeen := []string{"alpha clause", "beta clause", "gamma clause"}
	if !reflect.DeepEqual(inner.seen, wantSeen) {
		t.Errorf("inner embedded %v, want %v", inner.seen, wantSeen)
	}
	if !reflect.DeepEqual(second[0], first[1]) || !reflect.DeepEqual(second[2], first[0]) {
		t.Error("cached vectors returned out of order")
	}
	if c.ModelID() != inner.ModelID() {
		t.Error("Cached must report the wrapped model id")
	}
}

func TestCachedBypassesBrokenCache(t *testing.T) {
	inner := newCounting()
	c := WithCache(inner, &memCache{data: map[string][]float32{}, lookupErr: errors.New("disk gone")})

	vecs, err := c.EmbedBatch([]string{"alpha clause"})
	if err != nil || len(vecs) != 1 {
		t.Fatalf("EmbedBatch = %v, %v", vecs, err)
	}
}

func closeEnough(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}
