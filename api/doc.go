// Package api provides the HTTP API layer for the Favicon Finder.
// It uses the Huma framework to provide automatic OpenAPI documentation,
// request validation, and a clean handler interface.
//
// # Architecture
//
// The API package is structured as follows:
//
// - server.go: Huma API configuration, chi router and middleware stack
// - handlers/: HTTP request handlers
// - dto/: Data Transfer Objects for requests and responses
// - middleware/: request logging, request IDs and rate limiting
//
// # Endpoints
//
// - GET /favicon: runs the ordered strategy search and describes the result
// - GET /favicon/image: runs the search and returns the favicon bytes
// - GET /metrics: Prometheus metrics, when a metrics handler is configured
// - GET /openapi.json and /docs: generated OpenAPI document and UI
//
// Search parameters are plain query parameters:
//
//	GET /favicon?url=https://example.com&preferred=webManifest&icoPath=/static/favicon.ico
//
// # Usage Example
//
//	humaAPI, router := api.NewAPIWithMiddleware(api.APIConfig{
//	    Logger:     logger,
//	    RateLimit:  120,
//	    RateWindow: time.Minute,
//	})
//
//	handlers.NewFaviconHandler(finder, handlers.FaviconHandlerOptions{
//	    Logger: logger,
//	}).RegisterRoutes(humaAPI)
//
//	http.ListenAndServe(":8000", router)
//
// # Error Handling
//
// Errors use the RFC 7807 problem format. An invalid site URL or strategy
// name is a 400, a search in which every strategy failed is a 404 listing
// the per-strategy failures, and a search that outlives its deadline is a
// 504.
package api
