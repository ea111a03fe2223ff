// Package session holds the bearer credential issued at login and persists it
// between CLI invocations.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoSession is returned by Store.Load when nobody is logged in.
var ErrNoSession = errors.New("no session")

// Session is an authenticated user's opaque bearer token.
// It is passed explicitly to whatever needs to make authenticated calls.
type Session struct {
	token string
}

// New wraps a token returned by the login endpoint.
func New(token string) *Session {
	return &Session{token: token}
}

// Token returns the raw bearer token.
func (s *Session) Token() string {
	return s.token
}

// TokenSource exposes the credential to oauth2 transports, which set
// "Authorization: Bearer <token>" on every request.
func (s *Session) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
	})
}

// Authenticator is the part of the backend the gate needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Login authenticates once and, on success, persists the new session.
// Nothing is written when authentication fails.
func Login(ctx context.Context, auth Authenticator, store *Store, email, password string) (*Session, error) {
	token, err := auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess := New(token)
	if err := store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return sess, nil
}

// Store persists a session as an oauth2 token file.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a token file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the stored session.
// Returns ErrNoSession if the file is missing or holds an empty token.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(s.path), err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return nil, ErrNoSession
	}
	return New(tok.AccessToken), nil
}

// Save writes the session with mode 0600, creating the directory with 0700.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&oauth2.Token{
		AccessToken: sess.token,
		TokenType:   "Bearer",
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear deletes the token file. Returns false if there was nothing to delete.
func (s *Store) Clear() (bool, error) {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
