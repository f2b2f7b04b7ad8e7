package source_test

import (
	"testing"

	"hackstack/pkg/source"
)

func TestSourceFileLocForBytePos(t *testing.T) {
	sf := source.NewSourceFile("test", "á\néf\n\ng")

	test := func(pos, wantLine, wantChar int) {
		line, char := sf.LocForBytePos(pos)
		if line != wantLine || char != wantChar {
			t.Errorf("LocForBytePos(%d) = (%d, %d), want (%d, %d)", pos, line, char, wantLine, wantChar)
		}
	}

	test(0, 1, 1)
	test(2, 1, 2)
	test(3, 2, 1)
	test(5, 2, 2)
	test(8, 4, 1)
}

func TestSpanMerge(t *testing.T) {
	a := source.NewSpan(3, 7)
	b := source.NewSpan(1, 5)

	merged := a.Merge(b)
	if merged.Start != 1 || merged.End != 7 {
		t.Errorf("Merge() = %+v, want {1 7}", merged)
	}
}

func TestCursorAdvance(t *testing.T) {
	cur := source.NewCursor("café")

	var seen []rune
	for !cur.AtEOF() {
		seen = append(seen, cur.Current())
		cur.Advance()
	}

	want := []rune("café")
	if len(seen) != len(want) {
		t.Fatalf("got %d runes, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("rune %d = %q, want %q", i, seen[i], want[i])
		}
	}

	if cur.Current() != source.EOFRune {
		t.Errorf("Current() at end = %q, want EOFRune", cur.Current())
	}
}

func TestCursorEatWhile(t *testing.T) {
	cur := source.NewCursor("123abc")
	span := cur.EatWhile(func(r rune) bool { return r >= '0' && r <= '9' })

	if span.Start != 0 || span.End != 3 {
		t.Errorf("EatWhile() span = %+v, want {0 3}", span)
	}
	if cur.Current() != 'a' {
		t.Errorf("Current() after EatWhile = %q, want 'a'", cur.Current())
	}
}
