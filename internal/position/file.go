package position

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"BreakoutSentinel/internal/model"
)

// FileStore keeps the book as a JSON document mapping ticker to position.
type FileStore struct {
	Path       string
	Normalizer Normalizer
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string, n Normalizer) *FileStore {
	return &FileStore{Path: path, Normalizer: n}
}

// Load reads the book. Returns an empty book if the file doesn't exist.
func (s *FileStore) Load(_ context.Context) (model.Book, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Book{}, nil
		}
		return nil, fmt.Errorf("read positions: %w", err)
	}
	book := model.Book{}
	if len(data) == 0 {
		return book, nil
	}
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("decode positions %s: %w", s.Path, err)
	}
	return s.Normalizer.apply(book), nil
}

// Save writes the book to a temp file in the same directory and renames it
// over the target, so a crash never leaves a half-written file.
func (s *FileStore) Save(_ context.Context, book model.Book) error {
	if book == nil {
		book = model.Book{}
	}
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create positions dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp positions file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write positions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync positions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close positions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace positions: %w", err)
	}
	return nil
}
