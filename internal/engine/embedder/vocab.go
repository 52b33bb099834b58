package embedder

import (
	"bufio"
	"fmt"
	"os"
)

// vocab is a WordPiece vocabulary; a token's id is its zero-based line number.
type vocab struct {
	ids   map[string]int64
	size  int
	unkID int64
	clsID int64
	sepID int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	v := &vocab{ids: make(map[string]int64, 32000)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		v.ids[scanner.Text()] = int64(v.size)
		v.size++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read %s: %w", path, err)
	}
	if v.size == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	for name, dest := range map[string]*int64{"[UNK]": &v.unkID, "[CLS]": &v.clsID, "[SEP]": &v.sepID} {
		id, ok := v.ids[name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", name)
		}
		*dest = id
	}
	return v, nil
}

// lookup returns the id of token, or the [UNK] id.
func (v *vocab) lookup(token string) int64 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return v.unkID
}

func (v *vocab) contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}
