package ingest

import "errors"

// Sentinel kinds for ingestion.
var (
	ErrDecode    = errors.New("cannot decode tags")
	ErrFieldType = errors.New("unexpected field type")
)
