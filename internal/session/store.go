package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vetcare/portal/internal/vetapi"
)

// TokenStore persists the bearer token between runs. It is the only shared
// mutable state outside the session service itself.
type TokenStore interface {
	Token() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore keeps the token in a single file, readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: clear token: %w", err)
	}
	return nil
}

// TokenSourceFromStore adapts a store into the read-only token source the
// API client consumes on every request.
func TokenSourceFromStore(store TokenStore) vetapi.TokenSource {
	return func() string {
		token, err := store.Token()
		if err != nil {
			return ""
		}
		return token
	}
}
