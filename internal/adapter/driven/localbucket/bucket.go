// Package localbucket stores uploaded objects on the local filesystem. It is
// the object store used together with the SQLite backend.
package localbucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// ErrInvalidName is returned for bucket or object names that are empty or
// would escape the bucket directory.
var ErrInvalidName = errors.New("invalid object name")

// Store keeps objects under <root>/<bucket>/<name>. Public URLs are formed
// from baseURL, which is where the web adapter serves root.
type Store struct {
	root    string
	baseURL string
}

// Compile-time interface satisfaction check.
var _ driven.ObjectStore = (*Store)(nil)

// New creates a Store rooted at root. baseURL is the URL prefix the files are
// served under, for example "/media".
func New(root, baseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory objects are stored under.
func (s *Store) Root() string {
	return s.root
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func (s *Store) objectPath(bucket, name string) (string, error) {
	if !validName(bucket) || !validName(name) {
		return "", fmt.Errorf("%s/%s: %w", bucket, name, ErrInvalidName)
	}
	return filepath.Join(s.root, bucket, name), nil
}

// Upload writes data atomically; a reader never sees a partial file.
func (s *Store) Upload(_ context.Context, bucket, name, _ string, data []byte) error {
	path, err := s.objectPath(bucket, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PublicURL returns the URL the object is served at.
func (s *Store) PublicURL(bucket, name string) string {
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}

// Remove deletes the named objects. Missing objects are ignored.
func (s *Store) Remove(_ context.Context, bucket string, names ...string) error {
	var errs []error
	for _, name := range names {
		path, err := s.objectPath(bucket, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s/%s: %w", bucket, name, err))
		}
	}
	return errors.Join(errs...)
}
