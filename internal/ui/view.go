package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
)

const (
	GeneratingText = "Generating question using GenAI..."
	SubmittingText = "Submitting solution and generating feedback using GenAI..."
)

type applyMsg struct {
	fn func(*Root)
}

type clipboardMsg struct {
	text string
}

type animateMsg time.Time

type focusArea int

const (
	focusEditor focusArea = iota
	focusQuestion
	focusSidebar
)

type practiceKeyMap struct {
	Hint     key.Binding
	Settings key.Binding
	Solved   key.Binding
	Language key.Binding
	Run      key.Binding
	Submit   key.Binding
	New      key.Binding
	Menu     key.Binding
}

func (k practiceKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hint, k.Settings, k.Solved, k.Language, k.Run, k.Submit, k.New, k.Menu}
}

func (k practiceKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Hint, k.Settings, k.Solved, k.Language}, {k.Run, k.Submit, k.New, k.Menu}}
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	login      LoginState
	loginIndex int

	practice    PracticeState
	epoch       uint64
	busy        BusyState
	busyHidden  bool
	settings    SettingsState
	draft       SettingsState
	statusFlash string
	infoTitle   string
	infoText    string

	menuOpen     bool
	hintOpen     bool
	settingsOpen bool
	languageOpen bool
	infoOpen     bool
	sidebarOpen  bool

	menuIndex     int
	settingsIndex int
	languageIndex int
	solvedIndex   int
	focus         focusArea

	editor   textarea.Model
	question viewport.Model
	help     help.Model
	keymap   practiceKeyMap
	busyBar  progress.Model
	spin     spinner.Model
	logger   *clog.Logger

	markdown      *glamour.TermRenderer
	markdownWidth int
	rendered      map[string]string

	drawerPos   float64
	drawerVel   float64
	spring      harmonica.Spring
	pulsePos    float64
	pulseVel    float64
	pulseTarget float64
	pulse       harmonica.Spring
	animating   bool

	lastClipboard  string
	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "codequiz-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)

	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	pulse := harmonica.NewSpring(harmonica.FPS(60), 3.0, 0.7)
	if motionLevel == "reduced" {
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
		pulse = harmonica.NewSpring(harmonica.FPS(30), 1.5, 0.95)
	}

	bar := progress.New(
		progress.WithWidth(40),
		progress.WithColors(theme.Bar[0], theme.Bar[1]),
		progress.WithScaled(true),
		progress.WithoutPercentage(),
	)
	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	editor := textarea.New()
	editor.ShowLineNumbers = true
	editor.Placeholder = "Write your solution here."
	editor.CharLimit = 0
	_ = editor.Focus()

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		screen:       ScreenLogin,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		editor:       editor,
		question:     viewport.New(),
		help:         h,
		busyBar:      bar,
		spin:         spin,
		logger:       logger,
		rendered:     map[string]string{},
		spring:       spring,
		pulse:        pulse,
		pulseTarget:  0.9,
	}
	r.keymap = practiceKeyMap{
		Hint:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Hint")),
		Settings: key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Settings")),
		Solved:   key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Solved")),
		Language: key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Language")),
		Run:      key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Run")),
		Submit:   key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Submit")),
		New:      key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "New")),
		Menu:     key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Menu")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(spinnerTickCmd(r.spin), textarea.Blink)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.dispatchController(func(c Controller) { c.OnResize(msg.Width, msg.Height) })
		return r, r.animateIfNeeded()
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clipboardMsg:
		r.lastClipboard = msg.text
		return r, tea.SetClipboard(msg.text)
	case animateMsg:
		r.stepAnimation()
		if r.shouldAnimate() {
			return r, animateTickCmd()
		}
		r.animating = false
		r.settleAnimation()
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}

	var edCmd tea.Cmd
	r.editor, edCmd = r.editor.Update(msg)
	return r, edCmd
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch r.screen {
	case ScreenLogin:
		base = r.renderLogin()
	default:
		base = r.renderPractice()
	}

	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.WindowTitle = "codequiz"
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		if m.screen != screen {
			m.dismissAllOverlays()
		}
		m.screen = screen
		if screen == ScreenLogin {
			m.sidebarOpen = false
			m.focus = focusEditor
		}
	})
}

func (r *Root) SetLogin(state LoginState) {
	r.apply(func(m *Root) {
		m.login = state
	})
}

func (r *Root) SetPractice(state PracticeState) {
	r.apply(func(m *Root) {
		m.practice = state
		if state.Epoch != m.epoch {
			m.epoch = state.Epoch
			m.editor.SetValue(state.Code)
			m.question.GotoTop()
		}
		if state.Question == nil {
			m.hintOpen = false
		}
		if m.solvedIndex >= len(state.Solved) {
			m.solvedIndex = max(0, len(state.Solved)-1)
		}
	})
}

func (r *Root) SetSettings(state SettingsState) {
	r.apply(func(m *Root) {
		m.settings = state
		if !m.settingsOpen {
			m.draft = cloneSettings(state)
		}
	})
}

func (r *Root) SetBusy(state BusyState) {
	r.apply(func(m *Root) {
		if !state.Generating && !state.Submitting {
			m.busyHidden = false
		}
		m.busy = state
	})
}

func (r *Root) SetInfo(title, text string, open bool) {
	r.apply(func(m *Root) {
		m.infoTitle = title
		m.infoText = text
		m.infoOpen = open
	})
}

func (r *Root) CopyToClipboard(text string) {
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		r.lastClipboard = text
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(clipboardMsg{text: text})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+q"))) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}

	switch r.screen {
	case ScreenLogin:
		return r.handleLoginKey(msg)
	default:
		return r.handlePracticeKey(msg)
	}
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if r.screen != ScreenPractice || r.overlayActive() || r.focus != focusEditor {
		return r, nil
	}
	return r.updateEditor(msg)
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Code == tea.KeyF10 && r.screen == ScreenPractice {
		if r.topOverlay() == "menu" {
			r.menuOpen = false
			return r, nil
		}
		r.dismissAllOverlays()
		r.menuOpen = true
		r.menuIndex = 0
		return r, nil
	}

	if (msg.Code == 'c' || msg.Code == 'C') && msg.Mod&tea.ModCtrl != 0 {
		text := r.overlayCopyText()
		if strings.TrimSpace(text) == "" {
			return r, nil
		}
		r.statusFlash = "Copied to clipboard"
		r.lastClipboard = text
		return r, tea.SetClipboard(text)
	}

	if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape {
		r.closeTopOverlay()
		return r, r.animateIfNeeded()
	}

	switch r.topOverlay() {
	case "menu":
		items := r.menuItems()
		switch msg.Code {
		case tea.KeyUp:
			r.menuIndex = wrapIndex(r.menuIndex-1, len(items))
		case tea.KeyDown, tea.KeyTab:
			r.menuIndex = wrapIndex(r.menuIndex+1, len(items))
		case tea.KeyEnter:
			r.activateMenuItem(items[wrapIndex(r.menuIndex, len(items))])
			return r, r.animateIfNeeded()
		}
	case "settings":
		r.handleSettingsKey(msg)
	case "language":
		langs := r.settings.Languages
		switch msg.Code {
		case tea.KeyUp:
			r.languageIndex = wrapIndex(r.languageIndex-1, len(langs))
		case tea.KeyDown, tea.KeyTab:
			r.languageIndex = wrapIndex(r.languageIndex+1, len(langs))
		case tea.KeyEnter:
			r.languageOpen = false
			if len(langs) == 0 {
				return r, nil
			}
			lang := langs[wrapIndex(r.languageIndex, len(langs))].ID
			if lang == r.settings.Language {
				return r, nil
			}
			r.dispatchController(func(c Controller) { c.OnChangeLanguage(lang) })
		}
	case "hint", "info":
		if msg.Code == tea.KeyEnter || (msg.Mod == 0 && (msg.Code == 'q' || msg.Code == 'Q')) {
			r.closeTopOverlay()
		}
	}
	return r, nil
}

func (r *Root) handleSettingsKey(msg tea.KeyPressMsg) {
	topics := r.settingsTopics()
	rows := 1 + len(topics)
	switch msg.Code {
	case tea.KeyUp:
		r.settingsIndex = wrapIndex(r.settingsIndex-1, rows)
	case tea.KeyDown, tea.KeyTab:
		r.settingsIndex = wrapIndex(r.settingsIndex+1, rows)
	case tea.KeyLeft, tea.KeyRight, tea.KeySpace:
		if r.settingsIndex == 0 {
			step := 1
			if msg.Code == tea.KeyLeft {
				step = len(difficulties) - 1
			}
			r.draft.Difficulty = cycleDifficulty(r.draft.Difficulty, step)
			return
		}
		if msg.Code == tea.KeySpace {
			r.draft.Topics = toggleTopic(r.draft.Topics, topics[r.settingsIndex-1])
		}
	case tea.KeyEnter:
		if len(r.draft.Topics) == 0 {
			r.statusFlash = "Select at least one topic"
			return
		}
		draft := cloneSettings(r.draft)
		r.settingsOpen = false
		r.dispatchController(func(c Controller) { c.OnSaveSettings(draft) })
	}
}

func (r *Root) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := r.loginItems()
	switch msg.Code {
	case tea.KeyUp:
		r.loginIndex = wrapIndex(r.loginIndex-1, len(items))
	case tea.KeyDown, tea.KeyTab:
		r.loginIndex = wrapIndex(r.loginIndex+1, len(items))
	case tea.KeyEnter:
		item := items[wrapIndex(r.loginIndex, len(items))]
		switch item.Action {
		case "login":
			if r.login.Waiting {
				r.statusFlash = "Sign-in already in progress"
				return r, nil
			}
			r.dispatchController(func(c Controller) { c.OnLogin() })
		case "quit":
			r.dispatchController(func(c Controller) { c.OnQuit() })
		}
	}
	return r, nil
}

func (r *Root) handlePracticeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyF1:
		if r.practice.Question == nil {
			r.statusFlash = "No question loaded. Press F7 for a new one."
			return r, nil
		}
		r.hintOpen = true
		return r, nil
	case tea.KeyF2:
		r.openSettings()
		return r, nil
	case tea.KeyF3:
		r.toggleSidebar()
		return r, r.animateIfNeeded()
	case tea.KeyF4:
		r.openLanguagePicker()
		return r, nil
	case tea.KeyF5:
		if !r.requireQuestion() {
			return r, nil
		}
		code := r.editor.Value()
		r.dispatchController(func(c Controller) { c.OnRunTests(code) })
		return r, nil
	case tea.KeyF6:
		if !r.requireQuestion() {
			return r, nil
		}
		code := r.editor.Value()
		r.dispatchController(func(c Controller) { c.OnSubmit(code) })
		return r, nil
	case tea.KeyF7:
		r.dispatchController(func(c Controller) { c.OnGenerate() })
		return r, nil
	case tea.KeyF10:
		r.menuOpen = true
		r.menuIndex = 0
		return r, nil
	case tea.KeyTab:
		if msg.Mod&tea.ModShift != 0 {
			return r, r.cycleFocus(-1)
		}
		if r.focus != focusEditor {
			return r, r.cycleFocus(1)
		}
		r.editor.InsertString("    ")
		code, epoch := r.editor.Value(), r.epoch
		r.dispatchController(func(c Controller) { c.OnCodeChanged(epoch, code) })
		return r, nil
	case tea.KeyEsc:
		if r.focus != focusEditor {
			return r, r.setFocus(focusEditor)
		}
		return r, nil
	}

	switch r.focus {
	case focusQuestion:
		switch msg.Code {
		case tea.KeyUp:
			r.question.ScrollUp(1)
		case tea.KeyDown:
			r.question.ScrollDown(1)
		case tea.KeyPgUp:
			r.question.PageUp()
		case tea.KeyPgDown:
			r.question.PageDown()
		case tea.KeyHome:
			r.question.GotoTop()
		case tea.KeyEnd:
			r.question.GotoBottom()
		}
		return r, nil
	case focusSidebar:
		n := len(r.practice.Solved)
		switch msg.Code {
		case tea.KeyUp:
			r.solvedIndex = wrapIndex(r.solvedIndex-1, n)
		case tea.KeyDown:
			r.solvedIndex = wrapIndex(r.solvedIndex+1, n)
		case tea.KeyEnter:
			if n == 0 {
				return r, nil
			}
			idx := wrapIndex(r.solvedIndex, n)
			r.dispatchController(func(c Controller) { c.OnSelectSolved(idx) })
		}
		return r, nil
	}
	return r.updateEditor(msg)
}

func (r *Root) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := r.editor.Value()
	var cmd tea.Cmd
	r.editor, cmd = r.editor.Update(msg)
	if after := r.editor.Value(); after != before {
		epoch := r.epoch
		r.dispatchController(func(c Controller) { c.OnCodeChanged(epoch, after) })
	}
	return r, cmd
}

func (r *Root) requireQuestion() bool {
	if r.practice.Question != nil {
		return true
	}
	r.statusFlash = "No question loaded. Press F7 for a new one."
	return false
}

func (r *Root) cycleFocus(step int) tea.Cmd {
	order := []focusArea{focusEditor, focusQuestion}
	if r.sidebarOpen {
		order = append(order, focusSidebar)
	}
	idx := 0
	for i, f := range order {
		if f == r.focus {
			idx = i
		}
	}
	return r.setFocus(order[(idx+step+len(order))%len(order)])
}

func (r *Root) setFocus(f focusArea) tea.Cmd {
	r.focus = f
	if f == focusEditor {
		return r.editor.Focus()
	}
	r.editor.Blur()
	return nil
}

func (r *Root) toggleSidebar() {
	r.sidebarOpen = !r.sidebarOpen
	if r.sidebarOpen {
		r.setFocus(focusSidebar)
	} else if r.focus == focusSidebar {
		r.setFocus(focusEditor)
	}
	if r.motionLevel == "off" {
		r.settleAnimation()
	}
}

func (r *Root) openSettings() {
	r.draft = cloneSettings(r.settings)
	r.settingsIndex = 0
	r.settingsOpen = true
}

func (r *Root) openLanguagePicker() {
	r.languageIndex = 0
	for i, l := range r.settings.Languages {
		if l.ID == r.settings.Language {
			r.languageIndex = i
		}
	}
	r.languageOpen = true
}

type menuItem struct {
	Label  string
	Action string
}

func (r *Root) loginItems() []menuItem {
	return []menuItem{
		{Label: "Sign in with Google", Action: "login"},
		{Label: "Quit", Action: "quit"},
	}
}

func (r *Root) menuItems() []menuItem {
	return []menuItem{
		{Label: "Continue", Action: "continue"},
		{Label: "New question", Action: "generate"},
		{Label: "Settings", Action: "settings"},
		{Label: "Change language", Action: "language"},
		{Label: "Solved questions", Action: "solved"},
		{Label: "Sign out", Action: "logout"},
		{Label: "Quit", Action: "quit"},
	}
}

func (r *Root) activateMenuItem(item menuItem) {
	r.menuOpen = false
	switch item.Action {
	case "generate":
		r.dispatchController(func(c Controller) { c.OnGenerate() })
	case "settings":
		r.openSettings()
	case "language":
		r.openLanguagePicker()
	case "solved":
		r.toggleSidebar()
	case "logout":
		r.dispatchController(func(c Controller) { c.OnLogout() })
	case "quit":
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) topOverlay() string {
	switch {
	case r.infoOpen:
		return "info"
	case r.busyVisible():
		return "busy"
	case r.languageOpen:
		return "language"
	case r.settingsOpen:
		return "settings"
	case r.hintOpen:
		return "hint"
	case r.menuOpen:
		return "menu"
	}
	return ""
}

func (r *Root) busyVisible() bool {
	return r.screen == ScreenPractice && !r.busyHidden && (r.busy.Generating || r.busy.Submitting)
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) closeTopOverlay() {
	switch r.topOverlay() {
	case "info":
		r.infoOpen = false
		r.infoText = ""
		r.infoTitle = ""
	case "busy":
		r.busyHidden = true
	case "language":
		r.languageOpen = false
	case "settings":
		r.settingsOpen = false
		r.draft = cloneSettings(r.settings)
	case "hint":
		r.hintOpen = false
	case "menu":
		r.menuOpen = false
	}
}

func (r *Root) dismissAllOverlays() {
	for i := 0; i < 8 && r.overlayActive(); i++ {
		r.closeTopOverlay()
	}
}

func (r *Root) overlayCopyText() string {
	switch r.topOverlay() {
	case "info":
		title := strings.TrimSpace(r.infoTitle)
		text := strings.TrimSpace(r.infoText)
		if title == "" {
			return text
		}
		if text == "" {
			return title
		}
		return title + "\n\n" + text
	case "hint":
		if r.practice.Question != nil {
			return strings.TrimSpace(r.practice.Question.Hint)
		}
	}
	return ""
}

func (r *Root) drawerTarget() float64 {
	if r.sidebarOpen && r.screen == ScreenPractice && r.layout == LayoutMedium {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.animating || !r.shouldAnimate() {
		return nil
	}
	r.animating = true
	return animateTickCmd()
}

func (r *Root) stepAnimation() {
	r.drawerPos, r.drawerVel = r.spring.Update(r.drawerPos, r.drawerVel, r.drawerTarget())
	if r.busyVisible() {
		r.pulsePos, r.pulseVel = r.pulse.Update(r.pulsePos, r.pulseVel, r.pulseTarget)
		if abs(r.pulsePos-r.pulseTarget) < 0.05 {
			if r.pulseTarget > 0.5 {
				r.pulseTarget = 0.1
			} else {
				r.pulseTarget = 0.9
			}
		}
	}
}

func (r *Root) settleAnimation() {
	r.drawerPos = r.drawerTarget()
	r.drawerVel = 0
}

func (r *Root) shouldAnimate() bool {
	if r.motionLevel == "off" {
		return false
	}
	if r.busyVisible() {
		return true
	}
	target := r.drawerTarget()
	return abs(r.drawerPos-target) > 0.001 || abs(r.drawerVel) > 0.001
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "midnight", "paper", "terminal":
		return strings.TrimSpace(v)
	default:
		return "midnight"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"screen", r.screen,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"overlay", r.topOverlay(),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
