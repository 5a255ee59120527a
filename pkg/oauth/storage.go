package oauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenStorage persists the single cached token of this process.
type TokenStorage struct {
	path string
}

func NewTokenStorage(path string) *TokenStorage {
	return &TokenStorage{path: path}
}

func (s *TokenStorage) Path() string {
	return s.path
}

func (s *TokenStorage) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	return os.WriteFile(s.path, data, 0600)
}

func (s *TokenStorage) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path) // #nosec G304 -- path comes from local configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &token, nil
}
