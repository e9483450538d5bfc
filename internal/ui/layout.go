package ui

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < 80 || rows < 24 {
		return LayoutTooSmall
	}
	if cols >= 120 && rows >= 30 {
		return LayoutWide
	}
	return LayoutMedium
}

// practiceColumns splits the body width into sidebar, question and editor
// columns. The sidebar is zero when it is closed or drawn as a drawer.
func practiceColumns(mode LayoutMode, width int, sidebarOpen bool) (sidebar, question, editor int) {
	if mode == LayoutWide && sidebarOpen {
		sidebar = min(34, max(24, width/5))
	}
	rest := width - sidebar
	question = max(30, rest*45/100)
	editor = max(20, rest-question)
	return sidebar, question, editor
}

// editorRows splits the right column between editor and feedback panels.
func editorRows(bodyH int, hasFeedback bool) (editor, feedback int) {
	if !hasFeedback {
		feedback = min(6, max(3, bodyH/4))
	} else {
		feedback = max(6, bodyH*2/5)
	}
	editor = max(5, bodyH-feedback)
	return editor, bodyH - editor
}
