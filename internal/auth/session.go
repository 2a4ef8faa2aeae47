package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists the credential between process restarts or page loads.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session is the bearer credential used by the API client. All mutation goes
// through Set and Clear so the backing Store always mirrors the in-memory value.
type Session struct {
	store Store
	token string
}

// NewSession creates a session initialised from store. A nil store keeps the
// credential in memory only.
func NewSession(store Store) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	s.token = strings.TrimSpace(token)
	return s, nil
}

// Token returns the current credential, or "" when logged out.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Active reports whether a credential is held.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// Set stores a new credential.
func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if s.store != nil {
		if err := s.store.Save(token); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	s.token = token
	return nil
}

// Clear drops the credential. The in-memory value is cleared even if the
// store fails.
func (s *Session) Clear() error {
	s.token = ""
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// FileStore keeps the credential in a file readable only by the owner.
type FileStore struct {
	Path string
}

// Load implements Store. A missing file means no credential.
func (f FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save implements Store.
func (f FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token+"\n"), 0o600)
}

// Clear implements Store.
func (f FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
