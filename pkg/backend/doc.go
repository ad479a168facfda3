// Package backend is the client for the recommendation backend.
//
// The backend owns the course catalog, curriculum graphs, user profiles,
// approved-course histories, and the next-term planner. This package wraps
// its JSON API:
//
//	c, err := backend.NewClient(backend.DefaultBaseURL,
//	    backend.WithCache(fileCache, cache.NewDefaultKeyer()),
//	    backend.WithLogger(logger))
//	programs, err := c.Programs(ctx)
//	g, err := c.Graph(ctx, "Ingeniería de Software")
//
// # Authentication
//
// Requests carry the bearer token stored in the context by [WithToken].
// Endpoints that modify user data reject anonymous requests with 401; the
// client does not check for a token itself.
//
// # Caching and Retries
//
// Catalog data (programs, courses, graphs) is cached through a
// [cache.Cache]. GET requests are retried with exponential backoff on
// network errors and 5xx responses. Mutating requests are never retried.
// All requests pass through a token-bucket rate limiter.
//
// # Errors
//
// Non-2xx responses become [*APIError] values carrying the status and the
// backend's detail message. APIError implements Code, so
// [errors.GetCode] and [errors.HTTPStatus] classify it.
//
// [errors.GetCode]: github.com/matzehuels/curricula/pkg/errors.GetCode
// [errors.HTTPStatus]: github.com/matzehuels/curricula/pkg/errors.HTTPStatus
package backend
