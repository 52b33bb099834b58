package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crimson-sun/covenant/internal/model"
)

// Save writes t as JSON to path. The file is written beside path and
// renamed into place, so readers never observe a partial artifact.
func Save(path string, t *Taxonomy) error {
	if err := t.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("taxonomy: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("taxonomy: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("taxonomy: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("taxonomy: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("taxonomy: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("taxonomy: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("taxonomy: publish %s: %w", path, err)
	}
	return nil
}

// Load reads and validates an artifact. Every failure, including a missing
// file, is reported as model.ErrConfiguration: a classifier must not start
// without a usable taxonomy.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w: %w", model.ErrConfiguration, err)
	}
	var t Taxonomy
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("taxonomy: %w: decode %s: %w", model.ErrConfiguration, path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
