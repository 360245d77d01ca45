// Package clients provides the HTTP transport that carries platform requests.
package clients

import "errors"

// Transport errors are infrastructure failures: no status was classified.
// The chatkit core passes them to callers unchanged.
var (
	// ErrEncodeBody is returned when a request body cannot be serialised.
	ErrEncodeBody = errors.New("encoding request body")

	// ErrRequestFailed wraps network, TLS and timeout failures.
	ErrRequestFailed = errors.New("request failed")

	// ErrReadBody is returned when the response body cannot be read.
	ErrReadBody = errors.New("reading response body")

	// ErrResponseTooLarge is returned when a body exceeds the configured cap.
	ErrResponseTooLarge = errors.New("response body too large")
)
