// ABOUTME: Registry of the built-in favicon discovery strategies
// ABOUTME: Builds the strategy map the search orchestrator draws from

package strategies

import (
	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/interfaces"
)

// Defaults builds the registry of every built-in strategy, keyed by kind
func Defaults(deps interfaces.Dependencies) map[domain.StrategyKind]interfaces.FaviconStrategy {
	return map[domain.StrategyKind]interfaces.FaviconStrategy{
		domain.StrategyHTML:           NewHTMLStrategy(deps),
		domain.StrategyICO:            NewICOStrategy(deps),
		domain.StrategyWebManifest:    NewWebManifestStrategy(deps),
		domain.StrategyAppleTouchIcon: NewAppleTouchIconStrategy(deps),
	}
}
