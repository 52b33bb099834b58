package embedder

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// DefaultHashingDim is the vector size used when none is configured.
const DefaultHashingDim = 512

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {},
	"on": {}, "or": {}, "such": {}, "that": {}, "the": {}, "this": {}, "to": {}, "with": {},
}

// HashingEmbedder is a model-free embedder: lowercase word unigrams and
// bigrams are hashed into signed buckets and the result is L2-normalised.
// It needs no files, so taxonomies can be built and exercised where no
// neural model is installed. Its vectors only capture lexical overlap.
type HashingEmbedder struct {
	dim int
}

// NewHashing creates a HashingEmbedder with dim buckets.
func NewHashing(dim int) (*HashingEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedder: hashing dim must be positive, got %d", dim)
	}
	return &HashingEmbedder{dim: dim}, nil
}

func (h *HashingEmbedder) ModelID() string { return fmt.Sprintf("hashing-v1/%d", h.dim) }
func (h *HashingEmbedder) Dim() int        { return h.dim }
func (h *HashingEmbedder) Close() error    { return nil }

func (h *HashingEmbedder) Embed(text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *HashingEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashingEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dim)
	var prev string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopwords[w]; stop {
			prev = ""
			continue
		}
		h.add(vec, w)
		if prev != "" {
			h.add(vec, prev+" "+w)
		}
		prev = w
	}
	return normalize(vec)
}

func (h *HashingEmbedder) add(vec []float32, feature string) {
	f := fnv.New32a()
	f.Write([]byte(feature))
	sum := f.Sum32()
	if sum&(1<<31) != 0 {
		vec[int(sum&0x7fffffff)%h.dim]--
	} else {
		vec[int(sum)%h.dim]++
	}
}
