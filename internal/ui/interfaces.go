package ui

type Controller interface {
	OnLogin()
	OnLogout()
	OnGenerate()
	OnRunTests(code string)
	OnSubmit(code string)
	// OnCodeChanged reports editor contents typed for the question with the
	// given epoch.
	OnCodeChanged(epoch uint64, code string)
	OnSelectSolved(index int)
	OnChangeLanguage(lang string)
	OnSaveSettings(s SettingsState)
	OnQuit()
	OnResize(cols, rows int)
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetLogin(state LoginState)
	SetPractice(state PracticeState)
	SetSettings(state SettingsState)
	SetBusy(state BusyState)
	SetInfo(title, text string, open bool)
	CopyToClipboard(text string)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenLogin Screen = iota
	ScreenPractice
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

type LoginState struct {
	Notice  string
	Waiting bool
	// AuthURL is shown while waiting for the browser sign-in to finish.
	AuthURL string
}

type PracticeState struct {
	// Epoch changes whenever the loaded question is replaced. The editor is
	// only reset from Code when it does.
	Epoch        uint64
	Language     string
	LanguageName string
	Difficulty   string
	Topics       []string
	SessionLabel string
	Question     *QuestionView
	Code         string
	Feedback     *FeedbackView
	Solved       []SolvedRow
	Error        string
}

type QuestionView struct {
	Name  string
	Text  string
	Hint  string
	Cases []CaseRow
}

type CaseRow struct {
	Input    string
	Expected string
	Actual   string
	Ran      bool
	Passed   bool
}

type FeedbackView struct {
	Correct    bool
	Text       string
	Strengths  []string
	Weaknesses []string
}

type SolvedRow struct {
	Title    string
	Language string
	Correct  bool
}

type SettingsState struct {
	Language   string
	Difficulty string
	Topics     []string
	Available  []string
	Languages  []LanguageOption
}

type LanguageOption struct {
	ID    string
	Label string
}

type BusyState struct {
	Generating   bool
	RunningTests bool
	Submitting   bool
}

func (b BusyState) Any() bool {
	return b.Generating || b.RunningTests || b.Submitting
}
