package domain

import "errors"

// Error kinds surfaced by the collaborator layer. The mapping and script core
// is total and never returns these; adapters wrap them with context so callers
// can branch with errors.Is.
var (
	// ErrMissingCredentials means the weather provider needs an API key and none was given.
	ErrMissingCredentials = errors.New("weather source credentials missing")

	// ErrSourceUnavailable covers transport failures, non-200 responses and an open breaker.
	ErrSourceUnavailable = errors.New("weather source unavailable")

	// ErrMalformedResponse means the provider answered but the payload was unusable.
	ErrMalformedResponse = errors.New("malformed weather response")

	// ErrInvalidReport means a wind report could not be turned into a reading.
	ErrInvalidReport = errors.New("invalid wind report")
)
