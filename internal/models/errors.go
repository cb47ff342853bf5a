package models

import "errors"

// Error kinds surfaced by the record store, the diagnosis catalog and the pipeline.
// Callers match them with errors.Is; the wrapped message carries the details.
var (
	// ErrNotFound record (or its header) is not available locally and cannot be fetched
	ErrNotFound = errors.New("record not found")
	// ErrFetch remote retrieval failed (network, missing remote record); retrying may succeed
	ErrFetch = errors.New("record fetch failed")
	// ErrInvalidLead lead index outside [0, channel_count)
	ErrInvalidLead = errors.New("invalid lead")
	// ErrMalformedRecord header/data shape invariant violated
	ErrMalformedRecord = errors.New("malformed record")
)
