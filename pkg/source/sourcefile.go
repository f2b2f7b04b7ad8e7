package source

// SourceFile is a named, immutable source buffer plus a precomputed list of
// newline byte offsets, used to translate byte positions into (line, char)
// diagnostic coordinates and to extract substrings for a Span.
type SourceFile struct {
	Name  string
	Src   string
	lines []int // byte offset of every '\n' in Src, in ascending order
}

// NewSourceFile builds a SourceFile, pre-scanning Src for newline offsets.
func NewSourceFile(name, src string) *SourceFile {
	sf := &SourceFile{Name: name, Src: src}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			sf.lines = append(sf.lines, i)
		}
	}
	return sf
}

// LocForBytePos resolves a byte offset to a 1-based (line, char) pair. char
// counts code points (not bytes) from the start of the line.
func (sf *SourceFile) LocForBytePos(pos int) (line, char int) {
	line = 1
	lineStart := 0
	for _, nlOffset := range sf.lines {
		if nlOffset >= pos {
			break
		}
		line++
		lineStart = nlOffset + 1
	}

	if pos > len(sf.Src) {
		pos = len(sf.Src)
	}
	if lineStart > pos {
		lineStart = pos
	}
	char = len([]rune(sf.Src[lineStart:pos])) + 1
	return line, char
}

// StrForSpan returns the substring of the source buffer covered by span.
func (sf *SourceFile) StrForSpan(span Span) string {
	end := span.End
	if end > len(sf.Src) {
		end = len(sf.Src)
	}
	start := span.Start
	if start > end {
		start = end
	}
	return sf.Src[start:end]
}
