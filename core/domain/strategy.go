// ABOUTME: StrategyKind enumerates the favicon discovery methods and their default order
// ABOUTME: Builds the per-search attempt order with the preferred strategy first

package domain

import (
	"fmt"
	"strings"
)

// StrategyKind identifies a favicon discovery method
type StrategyKind string

const (
	// StrategyHTML parses <link rel="icon"> style tags in the site's root document
	StrategyHTML StrategyKind = "html"

	// StrategyICO probes the conventional /favicon.ico path
	StrategyICO StrategyKind = "ico"

	// StrategyWebManifest reads the icons declared in the site's web app manifest
	StrategyWebManifest StrategyKind = "webManifest"

	// StrategyAppleTouchIcon probes the conventional /apple-touch-icon.png path
	StrategyAppleTouchIcon StrategyKind = "appleTouchIcon"
)

// DefaultStrategy is attempted first when a search does not name a preferred strategy
const DefaultStrategy = StrategyHTML

// defaultStrategyOrder is the process-wide fallback order
var defaultStrategyOrder = [...]StrategyKind{
	StrategyHTML,
	StrategyICO,
	StrategyWebManifest,
	StrategyAppleTouchIcon,
}

// DefaultStrategyOrder returns a copy of the default fallback order
func DefaultStrategyOrder() []StrategyKind {
	order := make([]StrategyKind, len(defaultStrategyOrder))
	copy(order, defaultStrategyOrder[:])
	return order
}

// IsValid reports whether k is one of the known strategy kinds
func (k StrategyKind) IsValid() bool {
	for _, known := range defaultStrategyOrder {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the canonical name of the strategy kind
func (k StrategyKind) String() string {
	return string(k)
}

// ParseStrategyKind converts a name into a StrategyKind, ignoring case
func ParseStrategyKind(name string) (StrategyKind, error) {
	trimmed := strings.TrimSpace(name)
	for _, known := range defaultStrategyOrder {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q", name)
}

// AttemptOrder returns the default order with preferred moved to the front.
// Every kind appears exactly once. An empty or unknown preferred kind yields
// the default order unchanged.
func AttemptOrder(preferred StrategyKind) []StrategyKind {
	if !preferred.IsValid() {
		return DefaultStrategyOrder()
	}

	order := make([]StrategyKind, 0, len(defaultStrategyOrder))
	order = append(order, preferred)
	for _, kind := range defaultStrategyOrder {
		if kind != preferred {
			order = append(order, kind)
		}
	}
	return order
}
