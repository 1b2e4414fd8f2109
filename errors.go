package medextract

import "errors"

var (
	// ErrUnsupportedFormat is returned for document formats without a parser.
	ErrUnsupportedFormat = errors.New("medextract: unsupported document format")

	// ErrParsingFailed is returned when a document cannot be decoded to text.
	ErrParsingFailed = errors.New("medextract: parsing failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("medextract: invalid configuration")

	// ErrCatalogUnavailable is returned when the field catalogue cannot be
	// loaded. The underlying catalog error is wrapped alongside it.
	ErrCatalogUnavailable = errors.New("medextract: field catalogue unavailable")
)
