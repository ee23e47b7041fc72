package feed

import "fmt"

// ValidationKind classifies why a submitted URL was rejected.
type ValidationKind string

// Validation failure kinds, reported in check order: emptiness and URL shape
// before duplication.
const (
	ValidationEmpty     ValidationKind = "empty"
	ValidationMalformed ValidationKind = "malformed_url"
	ValidationDuplicate ValidationKind = "duplicate_source"
)

// ValidationError reports a rejected submission candidate.
type ValidationError struct {
	Kind      ValidationKind
	Candidate string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feed url %q: %s", e.Candidate, e.Kind)
}

// ParseError reports a document that could not be turned into a ParsedFeed:
// malformed XML or a channel header missing required fields.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse feed: " + e.Reason
}

// TransportError wraps a fetch failure surfaced by the Fetch capability.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
