package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory. An overlay store starts from a
// snapshot of its base and never writes back to it, so a dry run can change
// settings for one invocation only.
type ConfigStore struct {
	mu     sync.RWMutex
	base   driven.ConfigStore
	values map[string]any
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// NewConfigOverlay creates a store seeded from base. Set and Save only
// touch the overlay; Load discards local changes and re-reads base.
func NewConfigOverlay(base driven.ConfigStore) *ConfigStore {
	s := &ConfigStore{base: base}
	s.values = snapshot(base)
	return s
}

func snapshot(base driven.ConfigStore) map[string]any {
	values := make(map[string]any)
	if base == nil {
		return values
	}
	for _, key := range base.Keys() {
		if v, ok := base.Get(key); ok {
			values[key] = v
		}
	}
	return values
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value. Values copied from a
// TOML base arrive as int64.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores a configuration value in memory.
func (s *ConfigStore) Set(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("config key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Keys returns all configured keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save is a no-op: nothing leaves memory.
func (s *ConfigStore) Save() error {
	return nil
}

// Load resets an overlay to its base. A plain store keeps its values.
func (s *ConfigStore) Load() error {
	if s.base == nil {
		return nil
	}
	if err := s.base.Load(); err != nil {
		return err
	}
	values := snapshot(s.base)
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Path returns the base path marked as in-memory, or ":memory:".
func (s *ConfigStore) Path() string {
	if s.base != nil {
		return s.base.Path() + " (in memory)"
	}
	return ":memory:"
}
