package spool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Spool is the scratch directory holding submitted media while a post is
// pending. Every staged file belongs to exactly one post and is removed
// when that post is resolved.
type Spool struct {
	dir string
}

func New(dir string) *Spool {
	if strings.TrimSpace(dir) == "" {
		dir = "temp"
	}
	return &Spool{dir: dir}
}

func (s *Spool) Dir() string {
	return s.dir
}

func (s *Spool) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create spool dir %s: %w", s.dir, err)
	}
	return nil
}

// Stage writes the reader to a uniquely named file and returns its path.
// The hint (usually the platform file name) only contributes its extension.
func (s *Spool) Stage(r io.Reader, hint string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("stage reader is nil")
	}

	name := uuid.NewString() + extension(hint)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write spool file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close spool file: %w", err)
	}

	return path, nil
}

// Remove deletes a staged file. A file that is already gone is not an
// error, per-post cleanup must stay idempotent.
func (s *Spool) Remove(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove spool file %s: %w", path, err)
	}

	return nil
}

func extension(hint string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(hint)))
	if ext == "" || len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		return ".jpg"
	}
	return ext
}
