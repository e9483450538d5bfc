package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"codequiz/internal/api"
	"codequiz/internal/catalog"
	"codequiz/internal/quiz"
	"codequiz/internal/telemetry"
)

var (
	ErrUnknownLanguage  = errors.New("unknown programming language")
	ErrLanguageMismatch = errors.New("settings belong to a different language")
	ErrSuperseded       = errors.New("language change superseded")
)

type Controller struct {
	backend Backend
	creds   Credentials
	catalog *catalog.Catalog
	logger  *telemetry.Logger

	mu       sync.Mutex
	current  quiz.QuestionSettings
	seq      uint64
	workflow Workflow
	subs     []func(quiz.QuestionSettings)
}

func New(backend Backend, creds Credentials, cat *catalog.Catalog, logger *telemetry.Logger) *Controller {
	return &Controller{
		backend: backend,
		creds:   creds,
		catalog: cat,
		logger:  logger,
		current: quiz.DefaultSettings(),
	}
}

func (c *Controller) SetWorkflow(w Workflow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workflow = w
}

func (c *Controller) Subscribe(fn func(quiz.QuestionSettings)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Current returns a copy of the active settings.
func (c *Controller) Current() quiz.QuestionSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// Topics lists the selectable topics for lang.
func (c *Controller) Topics(lang quiz.Language) []string {
	if c.catalog == nil {
		return nil
	}
	return c.catalog.Topics(lang)
}

func (c *Controller) Languages() []quiz.Language {
	if c.catalog == nil {
		return append([]quiz.Language(nil), quiz.Languages...)
	}
	return c.catalog.LanguageIDs()
}

// Load adopts the persisted settings for the current language.
func (c *Controller) Load(ctx context.Context) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	lang := c.current.Language
	seq := c.seq
	c.mu.Unlock()

	remote, err := c.backend.GetSettings(ctx, token, lang)
	if err != nil {
		c.logger.Error("settings.load.failed", map[string]any{"language": lang, "error": err.Error()})
		return err
	}
	next := c.fromRemote(lang, remote)

	c.mu.Lock()
	if seq != c.seq || c.current.Language != lang {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.current = next
	c.publishLocked()
	c.logger.Info("settings.load.ok", map[string]any{"language": lang, "difficulty": next.Difficulty})
	return nil
}

// ChangeLanguage switches to lang. The loaded question is cleared before the
// fetch starts; on failure the current settings stay as they were.
func (c *Controller) ChangeLanguage(ctx context.Context, lang quiz.Language) error {
	if !c.known(lang) {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	wf := c.workflow
	c.mu.Unlock()

	if wf != nil {
		wf.Clear()
	}
	c.logger.Info("settings.language.begin", map[string]any{"language": lang, "seq": seq})

	remote, err := c.backend.GetSettings(ctx, token, lang)
	if err != nil {
		c.logger.Error("settings.language.failed", map[string]any{"language": lang, "error": err.Error()})
		return err
	}
	next := c.fromRemote(lang, remote)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.current = next
	c.publishLocked()

	if wf == nil {
		return nil
	}
	return wf.Regenerate(ctx, next.Clone())
}

// Save persists s for the current language and adopts it.
func (c *Controller) Save(ctx context.Context, s quiz.QuestionSettings) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	lang := c.current.Language
	seq := c.seq
	c.mu.Unlock()
	if s.Language != lang {
		return fmt.Errorf("%w: have %s, got %s", ErrLanguageMismatch, lang, s.Language)
	}

	s = s.Clone()
	if err := c.backend.PutSettings(ctx, token, lang, api.LanguageSettings{Difficulty: s.Difficulty, Topics: s.Topics}); err != nil {
		c.logger.Error("settings.save.failed", map[string]any{"language": lang, "error": err.Error()})
		return err
	}

	c.mu.Lock()
	if seq != c.seq || c.current.Language != lang {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.current = s
	c.publishLocked()
	c.logger.Info("settings.save.ok", map[string]any{"language": lang, "difficulty": s.Difficulty, "topics": len(s.Topics)})
	return nil
}

// Adopt switches to lang without a request, used when a solved question in
// another language is loaded. Difficulty is kept. Topics lang does not offer
// are dropped, and its catalog defaults are used when none remain. A pending
// language change is superseded.
func (c *Controller) Adopt(lang quiz.Language) {
	if !c.known(lang) {
		return
	}
	available := c.Topics(lang)
	c.mu.Lock()
	if c.current.Language == lang {
		c.mu.Unlock()
		return
	}
	c.seq++
	next := quiz.QuestionSettings{Difficulty: c.current.Difficulty, Language: lang}
	for _, topic := range c.current.Topics {
		if available == nil || slices.Contains(available, topic) {
			next.Topics = append(next.Topics, topic)
		}
	}
	if len(next.Topics) == 0 {
		next.Topics = c.defaults(lang).Topics
	}
	c.current = next
	c.publishLocked()
	c.logger.Info("settings.adopt", map[string]any{"language": lang, "topics": len(next.Topics)})
}

// Reset restores the defaults, used on sign-out.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.seq++
	c.current = quiz.DefaultSettings()
	c.publishLocked()
}

func (c *Controller) known(lang quiz.Language) bool {
	if !lang.Valid() {
		return false
	}
	if c.catalog == nil {
		return true
	}
	_, ok := c.catalog.Lookup(lang)
	return ok
}

// fromRemote falls back to the catalog defaults for fields the server left
// empty or invalid.
func (c *Controller) fromRemote(lang quiz.Language, remote api.LanguageSettings) quiz.QuestionSettings {
	out := quiz.QuestionSettings{
		Difficulty: remote.Difficulty,
		Topics:     append([]string(nil), remote.Topics...),
		Language:   lang,
	}
	if out.Difficulty.Valid() && out.Topics != nil {
		return out
	}
	def := c.defaults(lang)
	if !out.Difficulty.Valid() {
		out.Difficulty = def.Difficulty
	}
	if out.Topics == nil {
		out.Topics = def.Topics
	}
	return out
}

func (c *Controller) defaults(lang quiz.Language) quiz.QuestionSettings {
	if c.catalog != nil {
		return c.catalog.DefaultSettings(lang)
	}
	return quiz.QuestionSettings{Difficulty: quiz.DifficultyEasy, Language: lang}
}

// publishLocked releases c.mu and then notifies subscribers.
func (c *Controller) publishLocked() {
	cur := c.current.Clone()
	subs := slices.Clone(c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(cur.Clone())
	}
}
