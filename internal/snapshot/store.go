package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Entry is one persisted command/value pair.
type Entry struct {
	Key   string
	Value string
}

// Store is the in-memory snapshot. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]string
	logger  *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		entries: make(map[string]string),
		logger:  logger,
	}
}

// Record stores value under key, replacing any previous value.
func (s *Store) Record(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Lookup returns the value recorded under key.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Reset removes every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]string)
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of all entries sorted by key.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Load replaces the store contents with the mapping in path. An empty path,
// a missing file or an unparseable file leaves the store empty; the cause is
// logged and never returned.
func (s *Store) Load(path string) {
	entries := make(map[string]string)
	defer func() {
		s.mu.Lock()
		s.entries = entries
		s.mu.Unlock()
	}()

	if path == "" {
		s.logger.Debug("no snapshot path configured")
		return
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Info("snapshot file does not exist yet", zap.String("path", path))
		return
	}
	if err != nil {
		s.logger.Warn("failed to read snapshot file", zap.String("path", path), zap.Error(err))
		return
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("failed to parse snapshot file", zap.String("path", path), zap.Error(err))
		return
	}
	for k, v := range raw {
		if k == "" {
			continue
		}
		entries[k] = v
	}

	s.logger.Info("snapshot loaded", zap.String("path", path), zap.Int("entries", len(entries)))
}

// Flush writes every entry to path. An empty path is a no-op. The write goes
// to a temporary file first and is renamed into place.
func (s *Store) Flush(path string) error {
	if path == "" {
		return nil
	}

	s.mu.Lock()
	data, err := yaml.Marshal(s.entries)
	n := len(s.entries)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save snapshot file: %w", err)
	}

	s.logger.Info("snapshot flushed", zap.String("path", path), zap.Int("entries", n))
	return nil
}
