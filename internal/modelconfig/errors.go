package modelconfig

import "errors"

var (
	// ErrInvalidDocument is returned when a configuration body is not a JSON object.
	ErrInvalidDocument = errors.New("config is not a JSON object")

	// ErrFetchStatus is returned when the config host answers with a non-2xx status.
	ErrFetchStatus = errors.New("unexpected config fetch status")

	// ErrNoConfigURL is returned by the fetcher when a model has no config URL.
	ErrNoConfigURL = errors.New("model has no config url")
)
