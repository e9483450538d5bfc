package app

import (
	"codequiz/internal/quiz"
	"codequiz/internal/session"
	"codequiz/internal/ui"
	"codequiz/internal/workflow"
)

func (a *App) languageLabel(lang quiz.Language) string {
	if a.catalog != nil {
		if entry, ok := a.catalog.Lookup(lang); ok && entry.Label != "" {
			return entry.Label
		}
	}
	return lang.Label()
}

func (a *App) settingsState(s quiz.QuestionSettings) ui.SettingsState {
	out := ui.SettingsState{
		Language:   string(s.Language),
		Difficulty: string(s.Difficulty),
		Topics:     append([]string(nil), s.Topics...),
		Available:  a.settings.Topics(s.Language),
	}
	for _, lang := range a.settings.Languages() {
		out.Languages = append(out.Languages, ui.LanguageOption{ID: string(lang), Label: a.languageLabel(lang)})
	}
	return out
}

func (a *App) practiceState(snap workflow.Snapshot, s quiz.QuestionSettings, st session.Status) ui.PracticeState {
	out := ui.PracticeState{
		Epoch:        snap.Epoch,
		Language:     string(s.Language),
		LanguageName: a.languageLabel(s.Language),
		Difficulty:   string(s.Difficulty),
		Topics:       append([]string(nil), s.Topics...),
		SessionLabel: a.sessionLabel(st),
		Code:         snap.Code,
		Error:        snap.Err,
	}
	if snap.Question != nil {
		out.Question = questionView(*snap.Question, snap.Results)
		if snap.Question.Language != "" {
			out.LanguageName = a.languageLabel(snap.Question.Language)
		}
	}
	if snap.Feedback != nil {
		fb := snap.Feedback
		out.Feedback = &ui.FeedbackView{
			Correct:    fb.IsCorrect,
			Text:       fb.Feedback,
			Strengths:  append([]string(nil), fb.Strengths...),
			Weaknesses: append([]string(nil), fb.Weaknesses...),
		}
	}
	for _, solved := range snap.History {
		out.Solved = append(out.Solved, ui.SolvedRow{
			Title:    solved.Question.Name,
			Language: a.languageLabel(solved.Question.Language),
			Correct:  solved.Feedback.IsCorrect,
		})
	}
	return out
}

// questionView pairs results with test cases by index. Results that do not
// line up are not shown.
func questionView(q quiz.Question, results []quiz.TestCaseResult) *ui.QuestionView {
	view := &ui.QuestionView{Name: q.Name, Text: q.Text, Hint: q.Hint}
	ran := len(results) > 0 && quiz.Aligned(q, results)
	for i, tc := range q.TestCases {
		row := ui.CaseRow{Input: tc.Input, Expected: tc.ExpectedOutput}
		if ran {
			row.Ran = true
			row.Actual = results[i].ActualOutput
			row.Passed = results[i].Passed()
		}
		view.Cases = append(view.Cases, row)
	}
	return view
}

func (a *App) sessionLabel(st session.Status) string {
	if st.State != session.Authenticated {
		return "Signed out"
	}
	if a.cfg.MockBackend {
		return "Signed in (mock backend)"
	}
	return "Signed in"
}
