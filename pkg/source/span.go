// Package source holds the lexing substrate shared by every stage of the
// toolchain: byte spans, a UTF-8 cursor, source-file line/char lookup and
// the single diagnostic error shape every tokenizer/parser/codegen returns.
package source

// Span is a half-open byte range [Start, End) into a SourceFile. Spans are
// value types: comparable, copyable, and carry no identity of their own.
type Span struct {
	Start int
	End   int
}

// NewSpan builds a Span from a start (inclusive) and end (exclusive) byte offset.
func NewSpan(start, end int) Span { return Span{Start: start, End: end} }

// Merge returns the smallest Span enclosing both s and other.
func (s Span) Merge(other Span) Span {
	merged := Span{Start: s.Start, End: s.End}
	if other.Start < merged.Start {
		merged.Start = other.Start
	}
	if other.End > merged.End {
		merged.End = other.End
	}
	return merged
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }
