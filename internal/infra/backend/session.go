package backend

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/osa030/musicbox/internal/domain/account"
)

// DefaultSessionPath returns the default location of the saved session.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "musicbox", "session.yaml")
}

// SaveSession writes the session to path with owner-only permissions.
func SaveSession(path string, s *account.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return nil
}

// LoadSession reads a saved session. Returns ErrNoSession if none exists.
func LoadSession(path string) (*account.Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read session file")
	}

	var s account.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse session file")
	}
	if s.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// DeleteSession removes the saved session. A missing file is not an error.
func DeleteSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "failed to delete session file")
	}
	return nil
}
