package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"codequiz/internal/api"
	"codequiz/internal/catalog"
	"codequiz/internal/devtools"
	"codequiz/internal/identity"
	"codequiz/internal/quiz"
	"codequiz/internal/session"
	"codequiz/internal/settings"
	"codequiz/internal/state"
	"codequiz/internal/telemetry"
	"codequiz/internal/ui"
	"codequiz/internal/workflow"

	"github.com/google/uuid"
)

const (
	// MockCredential is the identity credential used against the in-process
	// mock backend when no --id-token is given.
	MockCredential = "dev-user"

	loginTimeout = 5 * time.Minute
)

type App struct {
	cfg Config

	logger   *telemetry.Logger
	catalog  *catalog.Catalog
	store    Store
	client   *api.Client
	session  *session.Manager
	workflow *workflow.Controller
	settings *settings.Controller
	identity identity.Provider
	view     ui.View

	mock     *devtools.Server
	stopMock func(context.Context) error

	sessionID string

	mu          sync.Mutex
	snap        workflow.Snapshot
	current     quiz.QuestionSettings
	status      session.Status
	loginCancel context.CancelFunc
}

func New(cfg Config) (*App, error) {
	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	})
	return build(cfg, view)
}

func build(cfg Config, view ui.View) (*App, error) {
	if !cfg.Ephemeral {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	logger = logger.With(map[string]any{"session": sessionID})

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		store:     store,
		view:      view,
		sessionID: sessionID,
		current:   quiz.DefaultSettings(),
	}

	if cfg.MockBackend {
		mock, err := devtools.NewServer(devtools.Options{Catalog: cat, Logger: logger.With(map[string]any{"component": "mock"})})
		if err == nil {
			var base string
			base, a.stopMock, err = mock.Start("")
			a.cfg.APIBaseURL = base
			a.mock = mock
		}
		if err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, fmt.Errorf("start mock backend: %w", err)
		}
	}

	a.client = api.New(api.Options{BaseURL: a.cfg.APIBaseURL, Timeout: cfg.RequestTimeout, Logger: logger}, store)
	a.session = session.NewManager(store, a.client, logger)
	a.settings = settings.New(a.client, a.session, cat, logger)
	a.workflow = workflow.New(a.client, a.session, a.settings, logger)
	a.settings.SetWorkflow(a.workflow)
	a.session.SetWorkflow(a.workflow)
	a.identity = identityFor(a.cfg)

	a.session.Subscribe(a.onSession)
	a.workflow.Subscribe(a.onSnapshot)
	a.settings.Subscribe(a.onSettings)

	view.SetController(a)
	view.SetSettings(a.settingsState(a.current))
	return a, nil
}

func openStore(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Ephemeral {
		return state.NewMemory(), nil
	}
	store, err := state.NewSQLite(cfg.TokenPath())
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func identityFor(cfg Config) identity.Provider {
	switch {
	case cfg.IDToken != "":
		return identity.StaticProvider{Token: cfg.IDToken}
	case cfg.MockBackend:
		return identity.StaticProvider{Token: MockCredential}
	default:
		return identity.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret)
	}
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"api": a.cfg.APIBaseURL, "mock": a.cfg.MockBackend, "ephemeral": a.cfg.Ephemeral})
	go a.bootstrap(ctx)
	return a.view.Run()
}

// bootstrap restores a stored session and, when that works, loads settings
// and the first question.
func (a *App) bootstrap(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()
	if a.session.Restore(ctx) != session.Authenticated {
		a.view.SetScreen(ui.ScreenLogin)
		return
	}
	a.startPractice(ctx)
}

// startPractice runs after every successful sign-in. A question already on
// screen is kept.
func (a *App) startPractice(ctx context.Context) {
	if a.workflow.Snapshot().Loaded() {
		return
	}
	if err := a.settings.Load(ctx); err != nil {
		a.handleErr(ctx, "settings.load", err)
		if api.IsUnauthenticated(err) {
			return
		}
	}
	genCtx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
	defer cancel()
	a.handleErr(genCtx, "generate", a.workflow.Generate(genCtx, nil))
}

func (a *App) Close() {
	a.mu.Lock()
	if a.loginCancel != nil {
		a.loginCancel()
	}
	a.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.stopMock != nil {
		_ = a.stopMock(ctx)
	}
	_ = a.store.Close()
	a.logger.Info("app.stop", nil)
	_ = a.logger.Close()
}

func (a *App) onSession(st session.Status) {
	a.mu.Lock()
	a.status = st
	a.mu.Unlock()

	if st.State == session.Authenticated {
		a.view.SetLogin(ui.LoginState{})
		a.view.SetScreen(ui.ScreenPractice)
		if st.Notice != "" {
			a.view.FlashStatus(st.Notice)
		}
		a.pushPractice()
		return
	}
	a.settings.Reset()
	a.view.SetLogin(ui.LoginState{Notice: st.Notice})
	a.view.SetScreen(ui.ScreenLogin)
}

func (a *App) onSnapshot(s workflow.Snapshot) {
	a.mu.Lock()
	a.snap = s
	a.mu.Unlock()
	a.view.SetBusy(ui.BusyState{Generating: s.Generating, RunningTests: s.RunningTests, Submitting: s.Submitting})
	a.pushPractice()
}

func (a *App) onSettings(s quiz.QuestionSettings) {
	a.mu.Lock()
	a.current = s
	a.mu.Unlock()
	a.view.SetSettings(a.settingsState(s))
	a.pushPractice()
}

func (a *App) pushPractice() {
	a.mu.Lock()
	snap, current, status := a.snap, a.current, a.status
	a.mu.Unlock()
	a.view.SetPractice(a.practiceState(snap, current, status))
}

// handleErr turns a controller error into what the user sees. A 401 from
// any call ends the session.
func (a *App) handleErr(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, workflow.ErrSuperseded), errors.Is(err, settings.ErrSuperseded):
		a.logger.Debug("app.superseded", map[string]any{"op": op})
		return
	case api.IsUnauthenticated(err):
		a.logger.Info("app.unauthenticated", map[string]any{"op": op})
		a.session.Expire(context.WithoutCancel(ctx))
		return
	case errors.Is(err, session.ErrAnonymous):
		a.view.FlashStatus("Please sign in first.")
	case errors.Is(err, workflow.ErrBusy):
		a.view.FlashStatus("Still working on the previous request.")
	case errors.Is(err, workflow.ErrNoQuestion):
		a.view.FlashStatus("No question loaded. Press F7 for a new one.")
	case errors.Is(err, settings.ErrUnknownLanguage), errors.Is(err, settings.ErrLanguageMismatch):
		a.view.FlashStatus(err.Error())
	default:
		a.view.FlashStatus(api.UserMessage(err))
	}
	a.logger.Error("app.op_failed", map[string]any{"op": op, "error": err.Error()})
}

func (a *App) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
}

func (a *App) OnLogin() {
	a.mu.Lock()
	if a.loginCancel != nil {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	a.loginCancel = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.loginCancel = nil
		a.mu.Unlock()
		cancel()
	}()

	a.view.SetLogin(ui.LoginState{Waiting: true})
	credential, err := a.identity.Credential(ctx, func(url string) {
		a.view.SetLogin(ui.LoginState{Waiting: true, AuthURL: url})
		a.view.CopyToClipboard(url)
		a.view.SetInfo("Sign in with Google", "Open this link in your browser to continue:\n\n"+url+"\n\nThe link was copied to your clipboard.", true)
	})
	a.view.SetInfo("", "", false)
	if err != nil {
		a.logger.Error("app.identity_failed", map[string]any{"error": err.Error()})
		notice := session.LoginFailedMessage
		if errors.Is(err, identity.ErrNotConfigured) {
			notice = "Google sign-in is not configured. Set CODEQUIZ_GOOGLE_CLIENT_ID or pass --id-token."
		}
		a.view.SetLogin(ui.LoginState{Notice: notice})
		return
	}

	loginCtx, loginCancel := a.opContext()
	defer loginCancel()
	if err := a.session.Login(loginCtx, credential); err != nil {
		// The session already published the failure notice.
		return
	}
	a.startPractice(loginCtx)
}

func (a *App) OnLogout() {
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.session.Logout(ctx); err != nil {
		a.view.FlashStatus("Could not clear the stored session: " + err.Error())
		return
	}
	a.view.FlashStatus("Signed out")
}

func (a *App) OnGenerate() {
	ctx, cancel := a.opContext()
	defer cancel()
	a.handleErr(ctx, "generate", a.workflow.Generate(ctx, nil))
}

func (a *App) OnRunTests(code string) {
	ctx, cancel := a.opContext()
	defer cancel()
	a.handleErr(ctx, "run_tests", a.workflow.RunTests(ctx, code))
}

func (a *App) OnSubmit(code string) {
	ctx, cancel := a.opContext()
	defer cancel()
	a.handleErr(ctx, "submit", a.workflow.Submit(ctx, code))
}

func (a *App) OnCodeChanged(epoch uint64, code string) {
	a.workflow.SetCode(epoch, code)
}

func (a *App) OnSelectSolved(index int) {
	history := a.workflow.Snapshot().History
	if index < 0 || index >= len(history) {
		return
	}
	entry := history[index]
	a.workflow.SelectHistoryEntry(entry)
	a.settings.Adopt(entry.Question.Language)
}

func (a *App) OnChangeLanguage(raw string) {
	lang, err := quiz.ParseLanguage(raw)
	if err != nil {
		a.view.FlashStatus(err.Error())
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()
	a.handleErr(ctx, "change_language", a.settings.ChangeLanguage(ctx, lang))
}

func (a *App) OnSaveSettings(s ui.SettingsState) {
	lang, err := quiz.ParseLanguage(s.Language)
	if err != nil {
		a.view.FlashStatus(err.Error())
		return
	}
	next := quiz.QuestionSettings{
		Difficulty: quiz.Difficulty(s.Difficulty),
		Topics:     append([]string(nil), s.Topics...),
		Language:   lang,
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.settings.Save(ctx, next); err != nil {
		a.handleErr(ctx, "save_settings", err)
		return
	}
	a.view.FlashStatus("Settings saved. Press F7 for a question that uses them.")
}

func (a *App) OnQuit() {
	a.view.Stop()
}

func (a *App) OnResize(cols, rows int) {
	a.logger.Debug("ui.resize", map[string]any{"cols": cols, "rows": rows, "layout": ui.DetermineLayoutMode(cols, rows)})
}

// Logout clears a stored session token without starting the UI.
func Logout(ctx context.Context, cfg Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.ClearToken(ctx)
}

var _ ui.Controller = (*App)(nil)
