package domain

import "errors"

var (
	// ErrInvalidRequest is returned when caller-supplied input fails validation
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMisconfigured is returned when a required provider credential is not configured
	ErrMisconfigured = errors.New("server misconfigured")

	// ErrMissingAPIKey is returned by provider clients constructed without a key
	ErrMissingAPIKey = errors.New("provider API key not set")

	// ErrUpstream is returned when a third-party provider responds with a non-2xx status
	ErrUpstream = errors.New("upstream provider request failed")

	// ErrNoResults is returned when a provider answers successfully but with nothing usable
	ErrNoResults = errors.New("provider returned no results")

	// ErrUnparseable is returned when model output cannot be decoded into the expected shape
	ErrUnparseable = errors.New("unparseable model output")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
