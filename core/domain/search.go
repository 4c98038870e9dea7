// ABOUTME: SearchConfig domain model holds the per-invocation options of a favicon search
// ABOUTME: Provides defaults, hint lookup and validation

package domain

import (
	"errors"
	"fmt"
)

// SearchConfig controls a single favicon search. It is treated as immutable
// once a search starts.
type SearchConfig struct {
	// PreferredStrategy is attempted before every other strategy
	PreferredStrategy StrategyKind

	// Hints overrides the default lookup path or selector per strategy
	Hints map[StrategyKind]string

	// FollowMetaRefreshRedirect makes strategies follow <meta http-equiv="refresh">
	// redirects on the site's root document before searching it
	FollowMetaRefreshRedirect bool

	// FetchImageBytes downloads and decodes the located image. When false the
	// search stops at the first located URL.
	FetchImageBytes bool
}

// DefaultSearchConfig returns the baseline configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		PreferredStrategy:         DefaultStrategy,
		Hints:                     map[StrategyKind]string{},
		FollowMetaRefreshRedirect: false,
		FetchImageBytes:           true,
	}
}

// Preferred returns the preferred strategy, falling back to DefaultStrategy
func (c SearchConfig) Preferred() StrategyKind {
	if c.PreferredStrategy == "" {
		return DefaultStrategy
	}
	return c.PreferredStrategy
}

// Hint returns the override for kind, or "" when none is set
func (c SearchConfig) Hint(kind StrategyKind) string {
	if c.Hints == nil {
		return ""
	}
	return c.Hints[kind]
}

// WithHint returns a copy of the config with the hint for kind set
func (c SearchConfig) WithHint(kind StrategyKind, hint string) SearchConfig {
	hints := make(map[StrategyKind]string, len(c.Hints)+1)
	for k, v := range c.Hints {
		hints[k] = v
	}
	hints[kind] = hint
	c.Hints = hints
	return c
}

// Validate checks that every strategy named by the config exists
func (c SearchConfig) Validate() error {
	if !c.Preferred().IsValid() {
		return fmt.Errorf("unknown preferred strategy %q", c.PreferredStrategy)
	}
	for kind := range c.Hints {
		if !kind.IsValid() {
			return fmt.Errorf("hint given for unknown strategy %q", kind)
		}
	}
	return nil
}

// ErrInvalidSiteURL is returned when a site URL is not an absolute http(s) URL
var ErrInvalidSiteURL = errors.New("site URL must be an absolute http or https URL")
