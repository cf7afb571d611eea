package domain

import "errors"

var (
	// ErrMissingAPIKey marks a source that cannot run without a configured key.
	ErrMissingAPIKey = errors.New("api key is not configured")
	// ErrObjectNotFound is returned by object stores for absent keys.
	ErrObjectNotFound = errors.New("object not found")
	// ErrWarehouseNotConfigured marks work that needs the relational warehouse when none is set up.
	ErrWarehouseNotConfigured = errors.New("database configuration missing")
	// ErrUnknownSource is returned when a job names an unregistered source.
	ErrUnknownSource = errors.New("source is not registered")
)
