// Package httputil provides shared HTTP response helpers for handlers.
//
// Handlers use these instead of raw http.ResponseWriter calls so every
// endpoint returns the same JSON formatting and error envelope.
package httputil
