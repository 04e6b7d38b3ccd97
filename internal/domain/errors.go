package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrSessionNotFound = errors.New("domain: session not found")
	ErrSessionExpired  = errors.New("domain: session expired")

	// Upstream failure taxonomy. All three surface to the client as the same
	// failure envelope; handlers distinguish them only in logs.
	ErrUpstreamTransport = errors.New("domain: upstream transport failure")
	ErrUpstreamData      = errors.New("domain: upstream data failure")
	ErrMalformedResponse = errors.New("domain: malformed upstream response")
)
