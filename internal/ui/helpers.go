package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var difficulties = []string{"Easy", "Medium", "Hard"}

func cycleDifficulty(current string, step int) string {
	idx := slices.Index(difficulties, current)
	if idx < 0 {
		return difficulties[0]
	}
	return difficulties[(idx+step)%len(difficulties)]
}

func containsTopic(topics []string, topic string) bool {
	return slices.Contains(topics, topic)
}

// toggleTopic returns a new slice; topics is never modified.
func toggleTopic(topics []string, topic string) []string {
	if i := slices.Index(topics, topic); i >= 0 {
		return slices.Delete(slices.Clone(topics), i, i+1)
	}
	return append(slices.Clone(topics), topic)
}

func cloneSettings(s SettingsState) SettingsState {
	s.Topics = slices.Clone(s.Topics)
	s.Available = slices.Clone(s.Available)
	s.Languages = slices.Clone(s.Languages)
	return s
}

func hardWrapLines(text string, width int) []string {
	width = max(1, width)
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\t", "    "), "\n") {
		if line == "" {
			out = append(out, "")
			continue
		}
		out = append(out, strings.Split(ansi.Wrap(line, width, ""), "\n")...)
	}
	return out
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// padRune pads or cuts s to exactly width cells. Styled text keeps its
// escape sequences.
func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func truncateANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	ow, oh := overlaySize(overlay, cols, rows)
	startRow := (rows - oh) / 2
	startCol := max(0, (cols-ow)/2)
	return composeOverlayAt(base, overlay, cols, rows, startRow, startCol)
}

func overlaySize(overlay string, cols, rows int) (int, int) {
	lines := strings.Split(strings.TrimRight(ansi.Strip(overlay), "\n"), "\n")
	ow := 1
	for _, line := range lines {
		if lw := len([]rune(line)); lw > ow {
			ow = lw
		}
	}
	return min(ow, cols), min(len(lines), rows)
}

func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow, _ := overlaySize(overlay, cols, rows)
	startRow = max(0, startRow)
	startCol = max(0, startCol)

	for i, line := range overlayLines {
		row := startRow + i
		if row >= rows {
			break
		}
		dst := []rune(baseLines[row])
		src := []rune(line)
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}
