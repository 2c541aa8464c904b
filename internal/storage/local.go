// Package storage implements ports.ObjectStorage on the local filesystem and
// on a Firebase (Google Cloud Storage) bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// URLPrefix is where the HTTP server mounts the local upload directory.
const URLPrefix = "/uploads/"

// Local stores files under Dir and serves them below BaseURL + URLPrefix.
type Local struct {
	Dir     string
	BaseURL string
}

func (l Local) Upload(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return l.PublicURL(key), nil
}

// Delete removes a file previously returned by Upload. URLs that do not
// point into this store are ignored.
func (l Local) Delete(_ context.Context, publicURL string) error {
	prefix := l.BaseURL + URLPrefix
	if !strings.HasPrefix(publicURL, prefix) {
		return nil
	}
	dst, err := l.resolve(strings.TrimPrefix(publicURL, prefix))
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l Local) PublicURL(key string) string {
	return l.BaseURL + URLPrefix + strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
}

func (l Local) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", errors.New("empty object path")
	}
	return filepath.Join(l.Dir, clean), nil
}
