package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Objects stores uploaded files as plain files under a root directory.
// Public URLs are local file paths, which the audio engine plays directly.
type Objects struct {
	root string
}

// NewObjects creates an object store rooted at dir.
func NewObjects(dir string) *Objects {
	return &Objects{root: dir}
}

// Objects returns the object store next to the database.
func (s *Store) Objects() *Objects {
	return NewObjects(s.objectsDir)
}

func (o *Objects) resolve(bucket, path string) (string, error) {
	clean := filepath.Clean(filepath.Join(bucket, filepath.FromSlash(path)))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Newf("invalid object path %s/%s", bucket, path)
	}
	return filepath.Join(o.root, clean), nil
}

// Upload writes the object. Existing objects are not overwritten.
func (o *Objects) Upload(ctx context.Context, bucket, path string, body io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := o.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s/%s", bucket, path)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to create object %s/%s", bucket, path)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return errors.Wrapf(err, "failed to write object %s/%s", bucket, path)
	}
	return f.Close()
}

// PublicURL returns the object's file path.
func (o *Objects) PublicURL(bucket, path string) string {
	target, err := o.resolve(bucket, path)
	if err != nil {
		return ""
	}
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return target
}
