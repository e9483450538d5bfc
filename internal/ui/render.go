package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

func (r *Root) renderLogin() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render("codequiz")

	items := r.loginItems()
	menuLines := make([]string, len(items))
	for i, item := range items {
		prefix := "  "
		if i == r.loginIndex {
			prefix = "> "
		}
		menuLines[i] = prefix + item.Label
	}
	left := r.drawPanel("Welcome", menuLines, min(36, max(24, w/3)), max(8, h-2))
	rightW := max(20, w-lipgloss.Width(left))
	right := r.drawPanel("Sign in", r.loginInfoLines(rightW-2), rightW, max(8, h-2))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return header + "\n" + body + "\n" + r.theme.Status.Width(max(1, w)).Render(trimForWidth(r.statusFlash, max(1, w-2)))
}

func (r *Root) loginInfoLines(width int) []string {
	lines := []string{
		"Practice programming questions generated for you,",
		"run them against test cases and get graded feedback.",
		"",
		"Supported languages: Java, OCaml, C.",
		"",
	}
	if notice := strings.TrimSpace(r.login.Notice); notice != "" {
		lines = append(lines, r.theme.Error.Render(trimForWidth(notice, width)), "")
	}
	if r.login.Waiting {
		lines = append(lines, r.spin.View()+" Waiting for Google sign-in to complete...")
		if r.login.AuthURL != "" {
			lines = append(lines, "", "If no browser opened, visit:")
			lines = append(lines, hardWrapLines(r.login.AuthURL, width)...)
		}
		return lines
	}
	lines = append(lines, "Press Enter to sign in with your Google account.")
	return lines
}

func (r *Root) renderPractice() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	if mode == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			"Minimum: 80x24",
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(60, w), min(12, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	header := r.headerText()
	status := r.statusText()
	bodyH := max(3, h-2)
	bodyY := 1

	sideW, questionW, editorW := practiceColumns(mode, w, r.sidebarOpen)
	edH, fbH := editorRows(bodyH, r.practice.Feedback != nil || r.practice.Error != "")

	right := r.renderEditorPanel(editorW, edH)
	if fbH > 0 {
		right += "\n" + r.renderFeedbackPanel(editorW, fbH)
	}
	var cols []string
	if sideW > 0 {
		cols = append(cols, r.drawPanelFocus("Solved", r.solvedLines(sideW-2), sideW, bodyH, r.focus == focusSidebar))
	}
	cols = append(cols, r.renderQuestionPanel(questionW, bodyH), right)
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	base := header + "\n" + body + "\n" + status
	if mode == LayoutMedium {
		if drawer := r.renderSolvedDrawer(bodyH); drawer != "" {
			base = composeOverlayAt(base, drawer, w, h, bodyY, 0)
		}
	}
	return base
}

func (r *Root) headerText() string {
	p := r.practice
	parts := []string{"codequiz"}
	if p.LanguageName != "" {
		parts = append(parts, p.LanguageName)
	}
	if p.Difficulty != "" {
		parts = append(parts, p.Difficulty)
	}
	if len(p.Topics) > 0 {
		parts = append(parts, strings.Join(p.Topics, ", "))
	}
	if p.SessionLabel != "" {
		parts = append(parts, p.SessionLabel)
	}
	if r.debug {
		parts = append(parts, fmt.Sprintf("%dx%d", r.cols, r.rows))
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(trimForWidth(strings.Join(parts, " | "), max(1, r.cols-2)))
}

func (r *Root) statusText() string {
	var left string
	switch {
	case r.busy.RunningTests:
		left = r.spin.View() + " Running tests..."
	case r.busy.Generating && r.busyHidden:
		left = r.spin.View() + " Generating question..."
	case r.busy.Submitting && r.busyHidden:
		left = r.spin.View() + " Submitting..."
	case r.statusFlash != "":
		left = r.statusFlash
	}
	r.help.SetWidth(max(10, r.cols-lipgloss.Width(left)-3))
	helpView := r.help.ShortHelpView(r.keymap.ShortHelp())
	line := helpView
	if left != "" {
		line = left + " | " + helpView
	}
	return r.theme.Status.Width(max(1, r.cols)).Render(truncateANSI(line, max(1, r.cols-2)))
}

func (r *Root) renderQuestionPanel(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	q := r.practice.Question
	if q == nil {
		lines := []string{
			"No question loaded.",
			"",
			"Press F7 to generate one, or F2 to",
			"adjust difficulty and topics first.",
		}
		if r.busy.Generating {
			lines = []string{r.spin.View() + " " + GeneratingText}
		}
		return r.drawPanelFocus("Question", lines, width, height, r.focus == focusQuestion)
	}

	body := r.renderMarkdown("# "+q.Name+"\n\n"+q.Text, innerW)
	content := strings.TrimRight(body, "\n") + "\n\n" + strings.Join(r.caseLines(innerW), "\n")
	r.question.SetWidth(innerW)
	r.question.SetHeight(innerH)
	r.question.SetContent(content)
	title := "Question"
	if pct := r.question.ScrollPercent(); r.question.TotalLineCount() > innerH {
		title = fmt.Sprintf("Question %3.0f%%", pct*100)
	}
	return r.drawPanelFocus(title, strings.Split(r.question.View(), "\n"), width, height, r.focus == focusQuestion)
}

func (r *Root) caseLines(width int) []string {
	q := r.practice.Question
	if q == nil || len(q.Cases) == 0 {
		return nil
	}
	passed, ran := 0, 0
	for _, c := range q.Cases {
		if c.Ran {
			ran++
			if c.Passed {
				passed++
			}
		}
	}
	heading := "Test cases"
	if ran > 0 {
		heading = fmt.Sprintf("Test cases (%d/%d passed)", passed, len(q.Cases))
	}
	lines := []string{r.theme.PanelTitle.Render(heading)}
	for i, c := range q.Cases {
		mark, style := r.glyph("pending"), r.theme.Pending
		if c.Ran && c.Passed {
			mark, style = r.glyph("pass"), r.theme.Pass
		} else if c.Ran {
			mark, style = r.glyph("fail"), r.theme.Fail
		}
		lines = append(lines, style.Render(mark)+fmt.Sprintf(" %d  input: %s", i+1, trimForWidth(c.Input, max(1, width-12))))
		lines = append(lines, "     expected: "+trimForWidth(c.Expected, max(1, width-15)))
		if c.Ran {
			lines = append(lines, "     actual:   "+trimForWidth(c.Actual, max(1, width-15)))
		}
	}
	return lines
}

func (r *Root) renderEditorPanel(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	r.editor.SetWidth(innerW)
	r.editor.SetHeight(innerH)
	title := "Code"
	if r.practice.LanguageName != "" {
		title = "Code (" + r.practice.LanguageName + ")"
	}
	return r.drawPanelFocus(title, strings.Split(r.editor.View(), "\n"), width, height, r.focus == focusEditor)
}

func (r *Root) renderFeedbackPanel(width, height int) string {
	innerW := max(1, width-2)
	var lines []string
	if msg := strings.TrimSpace(r.practice.Error); msg != "" {
		for _, l := range hardWrapLines(msg, innerW) {
			lines = append(lines, r.theme.Error.Render(l))
		}
	}
	if fb := r.practice.Feedback; fb != nil {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		if fb.Correct {
			lines = append(lines, r.theme.Pass.Render(r.glyph("pass")+" Correct"))
		} else {
			lines = append(lines, r.theme.Fail.Render(r.glyph("fail")+" Not quite"))
		}
		if text := strings.TrimSpace(fb.Text); text != "" {
			lines = append(lines, strings.Split(strings.TrimRight(r.renderMarkdown(text, innerW), "\n"), "\n")...)
		}
		if len(fb.Strengths) > 0 {
			lines = append(lines, "", r.theme.PanelTitle.Render("Strengths"))
			for _, s := range fb.Strengths {
				lines = append(lines, hardWrapLines("+ "+s, innerW)...)
			}
		}
		if len(fb.Weaknesses) > 0 {
			lines = append(lines, "", r.theme.PanelTitle.Render("To improve"))
			for _, s := range fb.Weaknesses {
				lines = append(lines, hardWrapLines("- "+s, innerW)...)
			}
		}
	}
	return r.drawPanel("Feedback", lines, width, height)
}

func (r *Root) solvedLines(width int) []string {
	if len(r.practice.Solved) == 0 {
		return []string{"No solved questions yet."}
	}
	lines := make([]string, 0, len(r.practice.Solved)+2)
	for i, s := range r.practice.Solved {
		prefix := "  "
		if i == r.solvedIndex && r.focus == focusSidebar {
			prefix = "> "
		}
		mark := r.glyph("fail")
		if s.Correct {
			mark = r.glyph("pass")
		}
		lines = append(lines, trimForWidth(fmt.Sprintf("%s%s [%s] %s", prefix, mark, s.Language, s.Title), width))
	}
	lines = append(lines, "", "Enter: open  F3: close")
	return lines
}

func (r *Root) renderSolvedDrawer(bodyHeight int) string {
	progress := r.drawerPos
	if r.sidebarOpen && progress < 0.2 {
		progress = 0.2
	}
	if !r.sidebarOpen && progress < 0.05 {
		return ""
	}
	full := min(max(30, r.cols/3), max(30, r.cols-18))
	drawW := int(float64(full) * maxFloat(progress, 0))
	if drawW < 18 {
		return ""
	}
	return r.drawPanelFocus("Solved", r.solvedLines(drawW-2), drawW, bodyHeight, r.focus == focusSidebar)
}

func (r *Root) renderOverlay() string {
	spec, ok := r.overlaySpec(r.topOverlay())
	if !ok {
		return ""
	}
	return r.drawPanel(spec.title, spec.lines, spec.width, spec.height)
}

type overlaySpec struct {
	title  string
	lines  []string
	width  int
	height int
}

func (r *Root) overlaySpec(top string) (overlaySpec, bool) {
	if top == "" {
		return overlaySpec{}, false
	}
	w := min(max(56, r.cols-12), r.cols)
	h := min(max(10, r.rows/2), max(8, r.rows-4))
	innerW := max(1, w-2)

	var title string
	var lines []string
	switch top {
	case "menu":
		title = "Menu"
		w = min(40, r.cols)
		for i, item := range r.menuItems() {
			prefix := "  "
			if i == r.menuIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+item.Label)
		}
		h = min(len(lines)+2, r.rows)
	case "busy":
		title = "Working"
		w = min(64, r.cols)
		text := GeneratingText
		if r.busy.Submitting {
			text = SubmittingText
		}
		bar := r.busyBar
		bar.SetWidth(max(8, w-6))
		lines = []string{"", " " + r.spin.View() + " " + text, "", " " + bar.ViewAs(r.pulsePos), "", " Esc: hide (keeps working)"}
		h = min(len(lines)+2, r.rows)
	case "language":
		title = "Language"
		w = min(40, r.cols)
		for i, l := range r.settings.Languages {
			prefix := "  "
			if i == r.languageIndex {
				prefix = "> "
			}
			label := l.Label
			if l.ID == r.settings.Language {
				label += " (current)"
			}
			lines = append(lines, prefix+label)
		}
		lines = append(lines, "", "Enter: switch  Esc: cancel")
		h = min(len(lines)+2, r.rows)
	case "settings":
		title = "Settings"
		lines = r.settingsLines()
	case "hint":
		title = "Hint"
		if q := r.practice.Question; q != nil {
			hint := strings.TrimSpace(q.Hint)
			if hint == "" {
				hint = "No hint for this question."
			}
			lines = strings.Split(strings.TrimRight(r.renderMarkdown(hint, innerW), "\n"), "\n")
		}
		lines = append(lines, "", "Ctrl+C: Copy hint", "Esc/q: Close")
	case "info":
		title = r.infoTitle
		if title == "" {
			title = "Info"
		}
		lines = hardWrapLines(r.infoText, innerW)
		lines = append(lines, "", "Ctrl+C: Copy text", "Esc/q: Close")
	default:
		return overlaySpec{}, false
	}
	return overlaySpec{title: title, lines: lines, width: w, height: h}, true
}

func (r *Root) settingsLines() []string {
	lang := r.draft.Language
	for _, l := range r.draft.Languages {
		if l.ID == r.draft.Language {
			lang = l.Label
		}
	}
	prefix := func(i int) string {
		if i == r.settingsIndex {
			return "> "
		}
		return "  "
	}
	lines := []string{
		"  Language: " + lang + "  (F4 to change)",
		"",
		prefix(0) + "Difficulty: < " + r.draft.Difficulty + " >",
		"",
		"  Topics:",
	}
	for i, topic := range r.settingsTopics() {
		box := "[ ]"
		if containsTopic(r.draft.Topics, topic) {
			box = "[x]"
		}
		lines = append(lines, prefix(i+1)+box+" "+topic)
	}
	lines = append(lines, "", "Space: toggle  Enter: save  Esc: cancel")
	return lines
}

// settingsTopics lists the catalog topics followed by any selected topic the
// catalog no longer offers.
func (r *Root) settingsTopics() []string {
	out := append([]string(nil), r.draft.Available...)
	for _, t := range r.draft.Topics {
		if !containsTopic(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func (r *Root) renderMarkdown(text string, width int) string {
	width = max(10, width)
	cacheKey := fmt.Sprintf("%d\x00%s", width, text)
	if out, ok := r.rendered[cacheKey]; ok {
		return out
	}
	if r.markdown == nil || r.markdownWidth != width {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.theme.Markdown),
			glamour.WithWordWrap(width-2),
		)
		if err != nil {
			r.logger.Warn("ui.markdown_renderer_failed", "err", err)
			return strings.Join(hardWrapLines(text, width), "\n")
		}
		r.markdown = md
		r.markdownWidth = width
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		out = strings.Join(hardWrapLines(text, width), "\n")
	}
	out = strings.Trim(out, "\n")
	if len(r.rendered) > 64 {
		clear(r.rendered)
	}
	r.rendered[cacheKey] = out
	return out
}

func (r *Root) glyph(name string) string {
	if r.ascii {
		switch name {
		case "pass":
			return "+"
		case "fail":
			return "x"
		default:
			return "."
		}
	}
	switch name {
	case "pass":
		return "✓"
	case "fail":
		return "✗"
	default:
		return "•"
	}
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	return r.drawPanelFocus(title, lines, width, height, false)
}

func (r *Root) drawPanelFocus(title string, lines []string, width, height int, focused bool) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}
	border := r.theme.PanelBorder
	if focused {
		border = r.theme.FocusBorder
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, border.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, border.Render(v)+r.theme.PanelBody.Render(line)+border.Render(v))
	}
	out = append(out, border.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}
