// Package storage keeps uploaded images under the static root. Files are
// addressed by web paths of the form /static/<collection>/<file>, which is
// what the API stores in image columns.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Collections under the static root.
const (
	CompletedEvents = "completedEvents"
	UpcomingEvents  = "upcomingEvents"
	MemberImages    = "userimages"
)

// WebPrefix is the URL prefix the static root is served under.
const WebPrefix = "/static/"

// ErrOutsideRoot is returned for paths that do not resolve inside the root.
var ErrOutsideRoot = errors.New("path outside static root")

// Store writes and removes files on an afero filesystem rooted at the
// static directory.
type Store struct {
	fs afero.Fs
}

// New wraps fs, which must already be rooted at the static directory.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOS returns a Store over dir on the local disk, creating it if needed.
func NewOS(dir string) (*Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create static dir: %w", err)
	}
	return New(afero.NewBasePathFs(osFs, dir)), nil
}

// Fs exposes the underlying filesystem for serving.
func (s *Store) Fs() afero.Fs { return s.fs }

// Save writes r to <collection>/<name><ext> and returns its web path. The
// data goes to a temp file first and is renamed into place, so readers never
// see a partial image. An existing file with the same name is replaced.
func (s *Store) Save(collection, name string, r io.Reader, ext string) (string, error) {
	if err := s.fs.MkdirAll(collection, 0o755); err != nil {
		return "", err
	}
	tmp, err := afero.TempFile(s.fs, collection, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", err
	}
	file := name + ext
	if err := s.fs.Rename(tmpName, path.Join(collection, file)); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", err
	}
	return WebPrefix + collection + "/" + file, nil
}

// Remove deletes the file behind a web path. Missing files are not an error.
func (s *Store) Remove(webPath string) error {
	rel, err := relPath(webPath)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(rel); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether a web path names a stored file.
func (s *Store) Exists(webPath string) bool {
	rel, err := relPath(webPath)
	if err != nil {
		return false
	}
	ok, _ := afero.Exists(s.fs, rel)
	return ok
}

func relPath(webPath string) (string, error) {
	if !strings.HasPrefix(webPath, WebPrefix) {
		return "", ErrOutsideRoot
	}
	rel := path.Clean(strings.TrimPrefix(webPath, WebPrefix))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", ErrOutsideRoot
	}
	return rel, nil
}

// CleanExt returns the lowercased extension of filename with anything but
// [a-z0-9] dropped, including the leading dot, or "" when nothing is left.
func CleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}

// RandomName returns a collision-free file stem.
func RandomName() string {
	return uuid.NewString()
}
