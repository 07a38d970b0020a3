package domain

import (
	"fmt"
	"strings"
)

// MissingFieldsError is returned when required canonical fields cannot be
// resolved against the source header. The load fails wholesale.
type MissingFieldsError struct {
	Source string
	Fields []Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	if e.Source == "" {
		return "missing required fields: " + strings.Join(names, ", ")
	}
	return fmt.Sprintf("source %q: missing required fields: %s", e.Source, strings.Join(names, ", "))
}

// Has reports whether f is among the unresolved fields.
func (e *MissingFieldsError) Has(f Field) bool {
	for _, m := range e.Fields {
		if m == f {
			return true
		}
	}
	return false
}

// SourceUnavailableError wraps a fetch, read, timeout or decode failure.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %q unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// RecordRejected describes a row dropped for failing the non-empty field
// invariant. It is collected in Diagnostics and never aborts a load.
type RecordRejected struct {
	// Line is the spreadsheet line number, counting the header as line 1.
	Line   int     `json:"line"`
	Fields []Field `json:"fields"`
}

func (r RecordRejected) Error() string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("line %d rejected: blank %s", r.Line, strings.Join(names, ", "))
}
