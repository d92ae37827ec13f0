package types

import "fmt"

// ValidationError reports a candidate record that cannot be ingested:
// missing title, unparseable due date, or a status outside the known enum.
// The batch skips the offending candidate and continues.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid candidate: field %q %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a single bad field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CorruptStateError reports persisted state that could not be parsed.
// Callers attempt backup recovery before giving up on the data.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state file %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// NotFoundError reports a restore or manual-archive target that does not
// exist. It is a non-fatal failure of that one operation.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// AmbiguousMatchError reports a fuzzy match whose two best scores land too
// close together to pick one safely. The candidate is treated as new and
// the ambiguity is logged for human review.
type AmbiguousMatchError struct {
	Candidate string
	FirstID   string
	SecondID  string
	First     float64
	Second    float64
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous fuzzy match for %q: %.3f vs %.3f", e.Candidate, e.First, e.Second)
}
