// Package session persists the client's only durable state: the session
// token, the theme preference, and a snapshot of the signed-in profile.
// Storage is a local SQLite database. The store implements
// auction.CredentialSource and notifies subscribers on every change, which
// is how other components observe logins and logouts.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"pinkgavel/internal/models"
)

// Well-known session keys.
const (
	keyToken   = "token"
	keyTheme   = "theme"
	keyProfile = "profile"
)

// ErrInvalidTheme is returned for theme values other than dark or light.
var ErrInvalidTheme = errors.New("theme must be dark or light")

// Change describes one mutated session key. Value is empty on removal.
type Change struct {
	Key   string
	Value string
}

// Store is the local session database. Safe for concurrent use within one
// process; cross-process coordination is limited to SQLite's own locking.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// Open creates or opens the session database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	return &Store{db: db, subs: make(map[int]func(Change))}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers fn to run on every session change and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Token returns the stored session token, if any.
func (s *Store) Token() (string, bool) {
	return s.get(keyToken)
}

// SetToken stores the session token.
func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

// ClearToken removes the session token and the stored profile.
func (s *Store) ClearToken() error {
	if err := s.remove(keyToken); err != nil {
		return err
	}
	return s.remove(keyProfile)
}

// Theme returns the stored theme preference, defaulting to light.
func (s *Store) Theme() string {
	if v, ok := s.get(keyTheme); ok {
		return v
	}
	return models.ThemeLight
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(theme string) error {
	if theme != models.ThemeDark && theme != models.ThemeLight {
		return ErrInvalidTheme
	}
	return s.set(keyTheme, theme)
}

// SetProfile stores a snapshot of the signed-in profile.
func (s *Store) SetProfile(p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.set(keyProfile, string(data))
}

// IsAuthenticated implements auction.CredentialSource.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.get(keyToken)
	return ok
}

// AuthHeader implements auction.CredentialSource.
func (s *Store) AuthHeader() (string, bool) {
	token, ok := s.get(keyToken)
	if !ok {
		return "", false
	}
	return "Bearer " + token, true
}

// CurrentUser implements auction.CredentialSource.
func (s *Store) CurrentUser() (*models.Profile, bool) {
	raw, ok := s.get(keyProfile)
	if !ok {
		return nil, false
	}
	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (s *Store) get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store session key %s: %w", key, err)
	}
	s.notify(Change{Key: key, Value: value})
	return nil
}

func (s *Store) remove(key string) error {
	res, err := s.db.Exec(`DELETE FROM session WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to remove session key %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(Change{Key: key})
	}
	return nil
}

func (s *Store) notify(ch Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
