package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	if got := DetermineLayoutMode(140, 30); got != LayoutWide {
		t.Fatalf("expected wide, got %v", got)
	}
	if got := DetermineLayoutMode(100, 30); got != LayoutMedium {
		t.Fatalf("expected medium, got %v", got)
	}
	if got := DetermineLayoutMode(79, 30); got != LayoutTooSmall {
		t.Fatalf("expected too-small, got %v", got)
	}
	if got := DetermineLayoutMode(100, 20); got != LayoutTooSmall {
		t.Fatalf("expected too-small by height, got %v", got)
	}
}

func TestPracticeColumnsFillWidth(t *testing.T) {
	for _, tc := range []struct {
		mode    LayoutMode
		width   int
		sidebar bool
	}{
		{LayoutWide, 140, true},
		{LayoutWide, 140, false},
		{LayoutMedium, 100, true},
	} {
		s, q, e := practiceColumns(tc.mode, tc.width, tc.sidebar)
		if s+q+e != tc.width {
			t.Fatalf("%v/%d: columns %d+%d+%d do not fill width", tc.mode, tc.width, s, q, e)
		}
		if tc.mode == LayoutMedium && s != 0 {
			t.Fatalf("medium layout draws the sidebar as a drawer")
		}
	}
}

func TestEditorRowsSumToBody(t *testing.T) {
	for _, h := range []int{22, 28, 40} {
		for _, fb := range []bool{true, false} {
			e, f := editorRows(h, fb)
			if e+f != h || e < 5 {
				t.Fatalf("h=%d feedback=%v: got %d/%d", h, fb, e, f)
			}
		}
	}
}
