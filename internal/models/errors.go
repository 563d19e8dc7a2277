package models

import "errors"

var (
	// ErrValidation signals malformed or missing request fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing account or document.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate username.
	ErrConflict = errors.New("already exists")
	// ErrUnauthorized signals a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a session without the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUpstream signals a failure in the search engine or account store.
	ErrUpstream = errors.New("upstream error")
	// ErrEmptyInput signals an empty document batch.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidOperation signals an unknown write command.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrUnsupportedQuery signals a query clause the backend cannot run.
	ErrUnsupportedQuery = errors.New("unsupported query")
	// ErrNoDocuments signals an ingestion pass that produced nothing to index.
	ErrNoDocuments = errors.New("no documents found")
	// ErrConfig signals missing connection parameters.
	ErrConfig = errors.New("configuration error")
)
