package source

import "fmt"

// SpanError is the single diagnostic shape produced by every stage: a
// human-readable message paired with the Span it refers to.
type SpanError struct {
	Msg  string
	Span Span
}

// NewSpanError builds a SpanError.
func NewSpanError(msg string, span Span) SpanError {
	return SpanError{Msg: msg, Span: span}
}

// Error implements the error interface. Format is file-agnostic; callers
// that need the "line L, char C: MESSAGE" diagnostic format should use
// Format with the owning SourceFile instead.
func (e SpanError) Error() string { return e.Msg }

// Format renders the diagnostic as "line L, char C: MESSAGE" (1-based),
// resolving the span's start position against sf.
func (e SpanError) Format(sf *SourceFile) string {
	line, char := sf.LocForBytePos(e.Span.Start)
	return fmt.Sprintf("line %d, char %d: %s", line, char, e.Msg)
}

// FormatWithFile renders the diagnostic prefixed with a filename, for
// multi-file diagnostics: "FILENAME (line L, char C): MESSAGE".
func (e SpanError) FormatWithFile(sf *SourceFile) string {
	line, char := sf.LocForBytePos(e.Span.Start)
	return fmt.Sprintf("%s (line %d, char %d): %s", sf.Name, line, char, e.Msg)
}
