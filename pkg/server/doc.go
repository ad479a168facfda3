// Package server exposes the curriculum map, planner, and history API over
// HTTP.
//
// The server sits between browsers and the recommendation backend. Catalog
// and graph requests go through the backend client's cache; history reads
// go through the explicit [history.Store]; writes are forwarded with the
// caller's bearer token and invalidate the cached history.
//
// # Sessions
//
// A request is authenticated by an Authorization bearer token (a JWT) or by
// the session cookie set by POST /auth/callback. Endpoints that write on
// the user's behalf answer 401 without one.
//
// # Errors
//
// Errors are JSON objects with a single "error" field. Backend failures keep
// the backend's status code.
package server
