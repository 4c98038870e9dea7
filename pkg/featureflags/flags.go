// ABOUTME: Feature flags that switch optional server features at startup
// ABOUTME: Layers the config file and FEATURE_* environment variables over built-in defaults

package featureflags

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Flag names an optional server feature
type Flag string

const (
	// ResultCache serves repeated searches from the configured cache
	ResultCache Flag = "result_cache"

	// MetricsEndpoint exposes Prometheus metrics at /metrics
	MetricsEndpoint Flag = "metrics_endpoint"

	// RateLimit enables per-IP rate limiting
	RateLimit Flag = "rate_limit"

	// ColorExtraction honours color=true on /favicon
	ColorExtraction Flag = "color_extraction"
)

var known = map[Flag]bool{
	ResultCache:     true,
	MetricsEndpoint: true,
	RateLimit:       true,
	ColorExtraction: true,
}

// Set is a resolved collection of flag states, safe for concurrent use
type Set struct {
	mu     sync.RWMutex
	values map[Flag]bool
}

// Defaults returns every known flag at its built-in state
func Defaults() *Set {
	values := make(map[Flag]bool, len(known))
	for flag, enabled := range known {
		values[flag] = enabled
	}
	return &Set{values: values}
}

// Resolve builds a Set from the defaults, then file overrides, then
// environment variables named prefix + upper-case flag name.
func Resolve(file map[string]bool, prefix string, lookup func(string) (string, bool)) (*Set, error) {
	s := Defaults()
	if err := s.Apply(file); err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(prefix, lookup); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply overrides flags by name. Unknown names are an error so typos surface.
func (s *Set) Apply(overrides map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, enabled := range overrides {
		flag := Flag(strings.ToLower(name))
		if _, ok := known[flag]; !ok {
			return fmt.Errorf("unknown feature flag %q", name)
		}
		s.values[flag] = enabled
	}
	return nil
}

// ApplyEnv reads one variable per known flag through lookup
func (s *Set) ApplyEnv(prefix string, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for flag := range known {
		key := prefix + strings.ToUpper(string(flag))
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		enabled, err := ParseValue(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.values[flag] = enabled
	}
	return nil
}

// ParseValue accepts on/off and enabled/disabled alongside strconv.ParseBool forms
func ParseValue(raw string) (bool, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "enabled", "on", "yes":
		return true, nil
	case "disabled", "off", "no":
		return false, nil
	default:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid flag value %q", raw)
		}
		return b, nil
	}
}

// Enabled reports the state of flag. Unknown flags are off.
func (s *Set) Enabled(flag Flag) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[flag]
}

// SetEnabled overrides one flag, mostly for tests
func (s *Set) SetEnabled(flag Flag, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[flag] = enabled
}

// LogFields renders the flag states for a structured log entry
func (s *Set) LogFields() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields := make(map[string]interface{}, len(s.values))
	for flag, enabled := range s.values {
		fields[string(flag)] = enabled
	}
	return fields
}
