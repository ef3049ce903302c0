// Package api provides the pull-side client for the market-data service.
//
// Endpoints (relative to the configured base URL):
//   - GET /{category}/{symbol} for category market, technical, performance
//   - GET /symbols
//
// The client makes exactly one request per call. Retrying belongs to the
// caller (see internal/retry).
package api
