// Package embedcache persists clause embeddings in SQLite so repeated
// taxonomy builds over the same corpus skip inference.
//
// It uses modernc.org/sqlite, a pure Go driver, so the cache works without
// CGO. Vectors are stored as little-endian float32 blobs keyed by model id
// and text hash; vectors from different models never mix.
package embedcache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crimson-sun/covenant/internal/engine/embedder"
)

// lookupChunk bounds the number of bound parameters per query.
const lookupChunk = 500

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	model_id   TEXT    NOT NULL,
	text_hash  TEXT    NOT NULL,
	dim        INTEGER NOT NULL,
	vector     BLOB    NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (model_id, text_hash)
)`

// Store is a SQLite-backed embedder.Cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

var _ embedder.Cache = (*Store)(nil)

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("embedcache: creating directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("embedcache: opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("embedcache: creating schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the cached vectors for the keys that are present.
func (s *Store) Lookup(ctx context.Context, modelID string, keys []string) (map[string][]float32, error) {
	found := make(map[string][]float32, len(keys))
	for start := 0; start < len(keys); start += lookupChunk {
		chunk := keys[start:min(start+lookupChunk, len(keys))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, modelID)
		for _, k := range chunk {
			args = append(args, k)
		}
		query := `SELECT text_hash, dim, vector FROM embeddings WHERE model_id = ? AND text_hash IN (?` +
			strings.Repeat(", ?", len(chunk)-1) + `)`

		if err := s.collect(ctx, query, args, found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (s *Store) collect(ctx context.Context, query string, args []any, found map[string][]float32) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("embedcache: lookup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  string
			dim  int
			blob []byte
		)
		if err := rows.Scan(&key, &dim, &blob); err != nil {
			return fmt.Errorf("embedcache: scanning row: %w", err)
		}
		if len(blob) != dim*4 {
			continue // damaged row; the caller re-embeds
		}
		found[key] = bytesToFloat32Slice(blob)
	}
	return rows.Err()
}

// Store writes vectors in a single transaction, replacing existing rows.
func (s *Store) Store(ctx context.Context, modelID string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("embedcache: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model_id, text_hash, dim, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("embedcache: prepare: %w", err)
	}
	defer stmt.Close()

	for key, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, modelID, key, len(vec), float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("embedcache: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("embedcache: commit: %w", err)
	}
	return nil
}

// Count returns the number of cached vectors for modelID.
func (s *Store) Count(ctx context.Context, modelID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE model_id = ?`, modelID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("embedcache: count: %w", err)
	}
	return n, nil
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
