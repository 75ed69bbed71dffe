package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores files below a directory and serves them under /media.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Local{root: root, baseURL: "/media/"}, nil
}

func (l *Local) path(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Save(ctx context.Context, folder, filename string, r io.Reader) (Object, error) {
	key := path.Join(folder, uniqueName(filename))
	full, err := l.path(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create folder: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return Object{}, fmt.Errorf("failed to write file: %w", err)
	}
	return Object{Key: key, Size: n}, nil
}

// Open returns an *os.File, so callers may use it as an io.ReadSeeker.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *Local) URL(key string) string {
	if key == "" {
		return ""
	}
	return l.baseURL + key
}
