// Package preferences persists the user's display language in a small JSON
// file shared with other settings.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	constants "taskly/config"
	"taskly/internal/logger"
)

// ErrInvalidLanguage is returned when saving a language outside the whitelist
var ErrInvalidLanguage = errors.New("language not allowed")

// Store reads and writes the preference file. Unknown keys in the file are
// preserved on save.
type Store struct {
	path     string
	fallback string
	allowed  []string
	log      *logger.Logger
	mutex    sync.Mutex
}

// NewStore creates a store for path. fallback is used when the file is
// missing, corrupt or holds a language outside the whitelist.
func NewStore(path, fallback string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	allowed := constants.ALLOWED_LANGUAGES
	if !slices.Contains(allowed, fallback) {
		fallback = constants.DEFAULT_LANGUAGE
	}
	return &Store{path: path, fallback: fallback, allowed: allowed, log: log}
}

// Path returns the preference file location
func (s *Store) Path() string {
	return s.path
}

// Allowed returns the language whitelist
func (s *Store) Allowed() []string {
	return slices.Clone(s.allowed)
}

// Language returns the saved language. A corrupt file or a language outside
// the whitelist deletes the file and yields the fallback.
func (s *Store) Language() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, err := s.read()
	if err != nil {
		s.log.Warning("preferences: removing unreadable %s: %v", s.path, err)
		s.remove()
		return s.fallback
	}
	if doc == nil {
		return s.fallback
	}

	raw, ok := doc[constants.LANGUAGE_KEY]
	if !ok {
		return s.fallback
	}

	var lang string
	if err := json.Unmarshal(raw, &lang); err != nil || !slices.Contains(s.allowed, lang) {
		s.log.Warning("preferences: removing %s with invalid language %s", s.path, string(raw))
		s.remove()
		return s.fallback
	}
	return lang
}

// SetLanguage validates and saves lang, keeping other keys in the file
func (s *Store) SetLanguage(lang string) error {
	if !slices.Contains(s.allowed, lang) {
		return fmt.Errorf("%w: %q (allowed: %v)", ErrInvalidLanguage, lang, s.allowed)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, err := s.read()
	if err != nil || doc == nil {
		// Corrupt content is replaced
		doc = make(map[string]json.RawMessage)
	}

	encoded, err := json.Marshal(lang)
	if err != nil {
		return fmt.Errorf("preferences: encode language: %w", err)
	}
	doc[constants.LANGUAGE_KEY] = encoded

	return s.write(doc)
}

// Toggle switches to the next language in the whitelist and returns it
func (s *Store) Toggle() (string, error) {
	current := s.Language()
	idx := slices.Index(s.allowed, current)
	next := s.allowed[(idx+1)%len(s.allowed)]
	if err := s.SetLanguage(next); err != nil {
		return current, err
	}
	return next, nil
}

// read returns nil, nil when the file does not exist
func (s *Store) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc == nil {
		return nil, errors.New("decode: not a JSON object")
	}
	return doc, nil
}

func (s *Store) remove() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Error("preferences: remove %s: %v", s.path, err)
	}
}

// write replaces the file atomically (temp file, then rename)
func (s *Store) write(doc map[string]json.RawMessage) error {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("preferences: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("preferences: create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-taskly-prefs-*.json")
	if err != nil {
		return fmt.Errorf("preferences: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("preferences: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("preferences: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("preferences: rename temp: %w", err)
	}

	success = true
	return nil
}
