package slot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var (
	ErrBadKey = errors.New("invalid slot key")

	keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// FileSlot keeps each key in <dir>/<key>.json.
type FileSlot struct {
	dir string
}

func NewFileSlot(dir string) (*FileSlot, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot dir %s: %w", dir, err)
	}
	return &FileSlot{dir: dir}, nil
}

func (s *FileSlot) path(key string) (string, error) {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return b, true, nil
}

// Set writes through a temp file so a crash never leaves a torn payload.
func (s *FileSlot) Set(ctx context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close slot %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("replace slot %s: %w", key, err)
	}
	return nil
}

func (s *FileSlot) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("slot dir %s is not a directory", s.dir)
	}
	return nil
}

func (s *FileSlot) Close() error { return nil }
