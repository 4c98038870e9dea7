// Package core contains the favicon search logic. It is framework-agnostic
// and can be used without the HTTP API.
//
// The core package is organized into several sub-packages:
//
// - domain: strategy kinds, search configuration, candidates and favicons
// - errors: tagged failure kinds and validation errors
// - interfaces: contracts for strategies, cache, HTTP, logging and metrics
// - strategies: the html, ico, webManifest and appleTouchIcon strategies
// - finder: the search orchestrator and its caching, coalescing wrapper
// - services: image download and dominant color extraction
//
// # Usage Example
//
//	deps := interfaces.Dependencies{
//	    Cache:      myCache,
//	    HTTPClient: myHTTPClient,
//	    Logger:     myLogger,
//	}
//
//	decoder := imaging.NewDecoder()
//	fetcher := services.NewImageFetcherService(deps, decoder, 5<<20)
//	search := finder.NewFinderService(deps, strategies.Defaults(deps), fetcher)
//
//	favicon, err := search.Find(ctx, siteURL, domain.DefaultSearchConfig())
package core
