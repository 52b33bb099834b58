package embedder

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSeqLen bounds encoder input; clauses longer than this are truncated.
const maxSeqLen = 256

// maxWordRunes is the longest word WordPiece will try to decompose.
const maxWordRunes = 100

// tokenized is a packed batch ready for inference. All slices are flat
// [batchSize * seqLen]; padding ids and masks are zero.
type tokenized struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// tokenizer performs uncased BERT WordPiece tokenization.
type tokenizer struct {
	vocab *vocab
}

func newTokenizer(vocabPath string) (*tokenizer, error) {
	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	return &tokenizer{vocab: v}, nil
}

// encode returns [CLS] ids... [SEP], truncated to maxSeqLen, without padding.
func (t *tokenizer) encode(text string) []int64 {
	ids := []int64{t.vocab.clsID}
	for _, word := range basicTokenize(text) {
		for _, piece := range t.wordpiece(word) {
			if len(ids) == maxSeqLen-1 {
				return append(ids, t.vocab.sepID)
			}
			ids = append(ids, t.vocab.lookup(piece))
		}
	}
	return append(ids, t.vocab.sepID)
}

// encodeBatch encodes texts and pads them to the longest sequence.
func (t *tokenizer) encodeBatch(texts []string) tokenized {
	seqs := make([][]int64, len(texts))
	longest := 0
	for i, text := range texts {
		seqs[i] = t.encode(text)
		longest = max(longest, len(seqs[i]))
	}

	b := tokenized{batchSize: int64(len(texts)), seqLen: int64(longest)}
	total := len(texts) * longest
	b.inputIDs = make([]int64, total)
	b.attentionMask = make([]int64, total)
	b.tokenTypeIDs = make([]int64, total)
	for i, seq := range seqs {
		row := i * longest
		copy(b.inputIDs[row:], seq)
		for j := range seq {
			b.attentionMask[row+j] = 1
		}
	}
	return b
}

// wordpiece greedily splits a word into the longest known subwords.
// Words that cannot be fully decomposed become [UNK].
func (t *tokenizer) wordpiece(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []string{"[UNK]"}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if t.vocab.contains(sub) {
				pieces = append(pieces, sub)
				break
			}
		}
		if end == start {
			return []string{"[UNK]"}
		}
		start = end
	}
	return pieces
}

// basicTokenize cleans, lowercases and strips accents, then splits on
// whitespace and punctuation. CJK ideographs become single tokens.
func basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(strings.ToLower(text)) {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r) || unicode.Is(unicode.Mn, r):
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case isPunctuation(r) || isCJK(r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation,
// as BERT does, in addition to Unicode punctuation.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
