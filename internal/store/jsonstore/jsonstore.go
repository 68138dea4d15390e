package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/idilsaglam/itemsubmit/internal/model"
)

// JSON-backed receipts log. Single file, human-readable, portable.
// Writes from one process are serialized; concurrent processes are not.

const DefaultFileName = "receipts.json"

var mu sync.Mutex

// DefaultPath returns the receipts file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "itemsubmit", DefaultFileName), nil
}

// Load returns every receipt stored at path. A missing file is an empty log.
func Load(path string) ([]model.Receipt, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Receipt{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(b) == 0 {
		return []model.Receipt{}, nil
	}
	var receipts []model.Receipt
	if err := json.Unmarshal(b, &receipts); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return receipts, nil
}

// Save replaces the log at path.
func Save(path string, receipts []model.Receipt) error {
	b, err := json.MarshalIndent(receipts, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Append adds one receipt to the log at path.
func Append(path string, r model.Receipt) error {
	mu.Lock()
	defer mu.Unlock()

	receipts, err := Load(path)
	if err != nil {
		return err
	}
	return Save(path, append(receipts, r))
}

// Store is a receipts log bound to one file.
type Store struct {
	Path string
}

func (s Store) Append(r model.Receipt) error { return Append(s.Path, r) }

func (s Store) Load() ([]model.Receipt, error) { return Load(s.Path) }
