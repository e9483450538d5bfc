package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"codequiz/internal/api"
	"codequiz/internal/quiz"
	"codequiz/internal/session"
	"codequiz/internal/state"
	"codequiz/internal/ui"
)

type fakeView struct {
	mu       sync.Mutex
	ctrl     ui.Controller
	screen   ui.Screen
	login    ui.LoginState
	practice ui.PracticeState
	settings ui.SettingsState
	busy     ui.BusyState
	flashes  []string
	infoOpen bool
	copied   string
	stopped  bool
}

func (f *fakeView) Run() error                     { return nil }
func (f *fakeView) Stop()                          { f.mu.Lock(); f.stopped = true; f.mu.Unlock() }
func (f *fakeView) SetController(c ui.Controller)  { f.ctrl = c }
func (f *fakeView) SetScreen(s ui.Screen)          { f.mu.Lock(); f.screen = s; f.mu.Unlock() }
func (f *fakeView) SetLogin(s ui.LoginState)       { f.mu.Lock(); f.login = s; f.mu.Unlock() }
func (f *fakeView) SetPractice(s ui.PracticeState) { f.mu.Lock(); f.practice = s; f.mu.Unlock() }
func (f *fakeView) SetSettings(s ui.SettingsState) { f.mu.Lock(); f.settings = s; f.mu.Unlock() }
func (f *fakeView) SetBusy(s ui.BusyState)         { f.mu.Lock(); f.busy = s; f.mu.Unlock() }
func (f *fakeView) SetInfo(_, _ string, open bool) { f.mu.Lock(); f.infoOpen = open; f.mu.Unlock() }
func (f *fakeView) CopyToClipboard(text string)    { f.mu.Lock(); f.copied = text; f.mu.Unlock() }
func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	f.flashes = append(f.flashes, msg)
	f.mu.Unlock()
}
func (f *fakeView) snapshot() (ui.Screen, ui.LoginState, ui.PracticeState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screen, f.login, f.practice
}
func (f *fakeView) lastFlash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return ""
	}
	return f.flashes[len(f.flashes)-1]
}

func mockConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.MockBackend = true
	cfg.Ephemeral = true
	cfg.RequestTimeout = 5 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T, cfg Config) (*App, *fakeView) {
	t.Helper()
	view := &fakeView{}
	a, err := build(cfg, view)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	t.Cleanup(a.Close)
	return a, view
}

func signIn(t *testing.T, a *App, view *fakeView) ui.PracticeState {
	t.Helper()
	a.bootstrap(context.Background())
	if screen, _, _ := view.snapshot(); screen != ui.ScreenLogin {
		t.Fatalf("expected login screen before sign-in, got %v", screen)
	}
	a.OnLogin()
	screen, _, practice := view.snapshot()
	if screen != ui.ScreenPractice {
		t.Fatalf("expected practice screen after sign-in, got %v", screen)
	}
	if practice.Question == nil {
		t.Fatalf("expected a first question to be generated after sign-in")
	}
	return practice
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.UI.StyleVariant = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
	if cfg.UI.StyleVariant != "midnight" || cfg.UI.MotionLevel != "full" {
		t.Fatalf("expected ui defaults, got %#v", cfg.UI)
	}

	bad := DefaultConfig()
	bad.DataDir = t.TempDir()
	bad.UI.MotionLevel = "wild"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected invalid motion level error")
	}

	bad = DefaultConfig()
	bad.DataDir = t.TempDir()
	bad.APIBaseURL = "localhost:8000"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestLoadConfigLayersDotenvUnderEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "CODEQUIZ_API_URL=http://quiz.example.test:9000\nCODEQUIZ_UI_STYLE=paper\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CODEQUIZ_API_URL") })
	t.Setenv("CODEQUIZ_UI_STYLE", "terminal")
	t.Setenv("CODEQUIZ_REQUEST_TIMEOUT", "5s")
	t.Setenv("CODEQUIZ_GOOGLE_CLIENT_ID", "client-123")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIBaseURL != "http://quiz.example.test:9000" {
		t.Fatalf("expected base url from dotenv, got %q", cfg.APIBaseURL)
	}
	if cfg.UI.StyleVariant != "terminal" {
		t.Fatalf("environment must win over dotenv, got %q", cfg.UI.StyleVariant)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.Google.ClientID != "client-123" {
		t.Fatalf("unexpected config %#v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing dotenv file must be ignored: %v", err)
	}
}

func TestSignInGeneratesFirstQuestionWithStoredSettings(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	practice := signIn(t, a, view)

	if practice.Language != "java" || practice.Difficulty != "Easy" || len(practice.Topics) != 3 {
		t.Fatalf("unexpected settings on screen %#v", practice)
	}
	if practice.SessionLabel != "Signed in (mock backend)" {
		t.Fatalf("unexpected session label %q", practice.SessionLabel)
	}
	for _, c := range practice.Question.Cases {
		if c.Ran {
			t.Fatalf("fresh question must not carry results")
		}
	}
}

func TestRunTestsAndSubmitFlowThroughToView(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	signIn(t, a, view)

	a.OnRunTests("// TODO")
	_, _, practice := view.snapshot()
	for _, c := range practice.Question.Cases {
		if !c.Ran || c.Passed {
			t.Fatalf("expected failing rows for unfinished code, got %#v", c)
		}
	}

	code := "class Solution { }"
	a.OnCodeChanged(practice.Epoch, code)
	a.OnSubmit(code)
	_, _, practice = view.snapshot()
	if practice.Feedback == nil || !practice.Feedback.Correct {
		t.Fatalf("expected correct feedback, got %#v", practice.Feedback)
	}
	for _, c := range practice.Question.Cases {
		if !c.Ran || !c.Passed {
			t.Fatalf("expected passing rows after submit, got %#v", c)
		}
	}
	if len(practice.Solved) != 1 || !practice.Solved[0].Correct {
		t.Fatalf("expected one solved entry, got %#v", practice.Solved)
	}

	a.OnGenerate()
	_, _, practice = view.snapshot()
	if practice.Feedback != nil || practice.Code != "" {
		t.Fatalf("new question must clear feedback and code, got %#v", practice)
	}

	a.OnSelectSolved(0)
	_, _, practice = view.snapshot()
	if practice.Code != code || practice.Feedback == nil {
		t.Fatalf("expected solved entry loaded verbatim, got %#v", practice)
	}
}

func TestChangeLanguageRegeneratesForNewLanguage(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	signIn(t, a, view)

	a.OnChangeLanguage("c")
	_, _, practice := view.snapshot()
	if practice.Language != "c" || practice.LanguageName != "C" {
		t.Fatalf("expected C settings, got %#v", practice)
	}
	if practice.Question == nil {
		t.Fatalf("expected a question regenerated for the new language")
	}
	view.mu.Lock()
	available := view.settings.Available
	view.mu.Unlock()
	if len(available) == 0 {
		t.Fatalf("expected C topic catalog in settings state")
	}
}

func TestSelectSolvedAdoptsItsLanguage(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	signIn(t, a, view)

	a.OnChangeLanguage("ocaml")
	a.OnSubmit("let rec length = function [] -> 0 | _ :: tl -> 1 + length tl")
	a.OnChangeLanguage("java")
	if got := a.settings.Current().Language; got != quiz.LanguageJava {
		t.Fatalf("expected java before selecting, got %s", got)
	}

	a.OnSelectSolved(0)
	_, _, practice := view.snapshot()
	if practice.Question == nil || practice.LanguageName != "OCaml" {
		t.Fatalf("expected the solved ocaml question loaded, got %#v", practice)
	}
	if got := a.settings.Current().Language; got != quiz.LanguageOCaml {
		t.Fatalf("settings must follow the loaded question, got %s", got)
	}
	view.mu.Lock()
	shown := view.settings.Language
	view.mu.Unlock()
	if practice.Language != "ocaml" || shown != "ocaml" {
		t.Fatalf("expected ocaml on screen, got practice=%q settings=%q", practice.Language, shown)
	}

	a.OnGenerate()
	if q := a.workflow.Snapshot().Question; q == nil || q.Language != quiz.LanguageOCaml {
		t.Fatalf("expected the next question in ocaml, got %#v", q)
	}
}

func TestSaveSettingsAdoptsWithoutRegenerating(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	before := signIn(t, a, view)

	a.OnSaveSettings(ui.SettingsState{Language: "java", Difficulty: "Hard", Topics: []string{"Lists"}})
	_, _, practice := view.snapshot()
	if practice.Difficulty != "Hard" || len(practice.Topics) != 1 {
		t.Fatalf("expected saved settings on screen, got %#v", practice)
	}
	if practice.Epoch != before.Epoch {
		t.Fatalf("saving settings must not replace the question")
	}
	if !strings.Contains(view.lastFlash(), "saved") {
		t.Fatalf("expected confirmation flash, got %q", view.lastFlash())
	}
}

func TestUnauthorizedResponseExpiresSession(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	signIn(t, a, view)

	a.mock.FailNext("generate_question", 401)
	a.OnGenerate()

	screen, login, practice := view.snapshot()
	if screen != ui.ScreenLogin {
		t.Fatalf("expected login screen after 401, got %v", screen)
	}
	if login.Notice != api.SessionExpiredMessage {
		t.Fatalf("unexpected notice %q", login.Notice)
	}
	if practice.Question != nil || len(practice.Solved) != 0 {
		t.Fatalf("expected question state cleared, got %#v", practice)
	}
	if a.session.Status().State != session.Anonymous {
		t.Fatalf("expected anonymous session")
	}

	a.OnGenerate()
	if view.lastFlash() != "Please sign in first." {
		t.Fatalf("expected client-side rejection, got %q", view.lastFlash())
	}
}

func TestRejectedCredentialShowsLoginFailure(t *testing.T) {
	cfg := mockConfig(t)
	cfg.IDToken = "invalid"
	a, view := newTestApp(t, cfg)

	a.OnLogin()

	screen, login, _ := view.snapshot()
	if screen != ui.ScreenLogin || login.Notice != session.LoginFailedMessage || login.Waiting {
		t.Fatalf("unexpected login state %v %#v", screen, login)
	}
}

func TestLogoutClearsStateAndReturnsToLogin(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	signIn(t, a, view)

	a.OnLogout()

	screen, login, practice := view.snapshot()
	if screen != ui.ScreenLogin || login.Notice != "" {
		t.Fatalf("unexpected state after logout %v %#v", screen, login)
	}
	if practice.Question != nil || practice.Language != "java" {
		t.Fatalf("expected cleared question and default settings, got %#v", practice)
	}
}

func TestLogoutCommandClearsStoredToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	store, err := state.NewSQLite(cfg.TokenPath())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.SetToken(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if err := Logout(ctx, cfg); err != nil {
		t.Fatalf("logout: %v", err)
	}

	store, err = state.NewSQLite(cfg.TokenPath())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, ok, _ := store.Token(ctx); ok {
		t.Fatalf("expected token cleared")
	}
}

func TestQuitStopsView(t *testing.T) {
	a, view := newTestApp(t, mockConfig(t))
	a.OnQuit()
	view.mu.Lock()
	defer view.mu.Unlock()
	if !view.stopped {
		t.Fatalf("expected view stopped")
	}
}
