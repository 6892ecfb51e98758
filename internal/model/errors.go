package model

import "errors"

// ErrMissingDocument marks an expected page that does not exist
var ErrMissingDocument = errors.New("document not found")

// ErrStubDocument marks a page too small to carry content
var ErrStubDocument = errors.New("stub document")

// SkipReason classifies input that was skipped without failing the run
type SkipReason string

const (
	SkipUnparseableLine      SkipReason = "unparseable_line"
	SkipUnresolvableCountry  SkipReason = "unresolvable_country"
	SkipMissingDocument      SkipReason = "missing_document"
	SkipStubDocument         SkipReason = "stub_document"
	SkipAmbiguousDeclaration SkipReason = "ambiguous_declaration"
)

// SkipReasonFor maps a retrieval error to its skip reason.
// Returns "" for errors that are real failures.
func SkipReasonFor(err error) SkipReason {
	switch {
	case errors.Is(err, ErrMissingDocument):
		return SkipMissingDocument
	case errors.Is(err, ErrStubDocument):
		return SkipStubDocument
	}
	return ""
}
