package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"codequiz/internal/api"
	"codequiz/internal/quiz"
	"codequiz/internal/telemetry"
)

var (
	ErrBusy       = errors.New("operation already in progress")
	ErrNoQuestion = errors.New("no question loaded")
	// ErrSuperseded is returned when a response arrived after the state it
	// was computed against had been replaced. The response is dropped.
	ErrSuperseded = errors.New("response superseded")
)

type Controller struct {
	backend  Backend
	creds    Credentials
	settings SettingsSource
	logger   *telemetry.Logger

	mu     sync.Mutex
	snap   Snapshot
	genSeq uint64
	resets uint64
	subs   []func(Snapshot)
}

func New(backend Backend, creds Credentials, settings SettingsSource, logger *telemetry.Logger) *Controller {
	return &Controller{backend: backend, creds: creds, settings: settings, logger: logger}
}

func (c *Controller) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Generate requests a new question with override, or the current settings
// when override is nil. It is rejected while another generation is pending.
func (c *Controller) Generate(ctx context.Context, override *quiz.QuestionSettings) error {
	return c.generate(ctx, override, false)
}

// Regenerate is Generate for a settings switch: it supersedes any pending
// generation instead of being rejected by it.
func (c *Controller) Regenerate(ctx context.Context, s quiz.QuestionSettings) error {
	return c.generate(ctx, &s, true)
}

func (c *Controller) generate(ctx context.Context, override *quiz.QuestionSettings, supersede bool) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		c.recordErr(err)
		return err
	}

	var settings quiz.QuestionSettings
	if override != nil {
		settings = override.Clone()
	} else if c.settings != nil {
		settings = c.settings.Current()
	} else {
		settings = quiz.DefaultSettings()
	}

	c.mu.Lock()
	if c.snap.Generating && !supersede {
		c.mu.Unlock()
		return ErrBusy
	}
	c.genSeq++
	seq := c.genSeq
	c.snap.Generating = true
	c.snap.Err = ""
	c.publishLocked()

	c.logger.Info("workflow.generate.begin", map[string]any{"seq": seq, "language": settings.Language, "difficulty": settings.Difficulty})

	if err := c.RefreshHistory(ctx); err != nil {
		if !c.finishGenerate(seq, err) {
			return ErrSuperseded
		}
		return err
	}

	q, err := c.backend.GenerateQuestion(ctx, token, settings)
	if err != nil {
		if !c.finishGenerate(seq, err) {
			return ErrSuperseded
		}
		return err
	}
	if q.Language == "" {
		q.Language = settings.Language
	}

	c.mu.Lock()
	if seq != c.genSeq {
		c.mu.Unlock()
		c.logger.Info("workflow.generate.stale", map[string]any{"seq": seq})
		return ErrSuperseded
	}
	c.snap.Generating = false
	c.snap.Epoch++
	c.snap.Question = &q
	c.snap.Code = ""
	c.snap.Results = nil
	c.snap.Feedback = nil
	c.snap.Err = ""
	c.publishLocked()
	c.logger.Info("workflow.generate.ok", map[string]any{"seq": seq, "question": q.Name, "cases": len(q.TestCases)})
	return nil
}

// finishGenerate records a failed generation. It reports false when the
// request had already been superseded, in which case nothing changes.
func (c *Controller) finishGenerate(seq uint64, err error) bool {
	c.mu.Lock()
	if seq != c.genSeq {
		c.mu.Unlock()
		return false
	}
	c.snap.Generating = false
	c.snap.Err = api.UserMessage(err)
	c.publishLocked()
	c.logger.Error("workflow.generate.failed", map[string]any{"seq": seq, "error": err.Error()})
	return true
}

// RunTests executes code against the loaded question on the backend.
func (c *Controller) RunTests(ctx context.Context, code string) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		c.recordErr(err)
		return err
	}
	c.mu.Lock()
	if c.snap.Question == nil {
		c.mu.Unlock()
		return ErrNoQuestion
	}
	if c.snap.RunningTests {
		c.mu.Unlock()
		return ErrBusy
	}
	q := *c.snap.Question
	epoch := c.snap.Epoch
	c.snap.RunningTests = true
	c.snap.Code = code
	c.snap.Err = ""
	c.publishLocked()

	results, err := c.runTests(ctx, token, q, code)

	c.mu.Lock()
	c.snap.RunningTests = false
	if err != nil {
		if epoch == c.snap.Epoch {
			c.snap.Err = api.UserMessage(err)
		}
		c.publishLocked()
		c.logger.Error("workflow.run_tests.failed", map[string]any{"error": err.Error()})
		return err
	}
	if epoch != c.snap.Epoch {
		c.publishLocked()
		return ErrSuperseded
	}
	c.snap.Results = results
	c.publishLocked()
	c.logger.Info("workflow.run_tests.ok", map[string]any{"passed": quiz.PassedCount(results), "total": len(results)})
	return nil
}

// Submit re-runs the tests for code and, only if that succeeds, submits
// code with those results for grading.
func (c *Controller) Submit(ctx context.Context, code string) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		c.recordErr(err)
		return err
	}
	c.mu.Lock()
	if c.snap.Question == nil {
		c.mu.Unlock()
		return ErrNoQuestion
	}
	if c.snap.Submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	q := *c.snap.Question
	epoch := c.snap.Epoch
	c.snap.Submitting = true
	c.snap.Code = code
	c.snap.Err = ""
	c.publishLocked()

	results, err := c.runTests(ctx, token, q, code)
	if err != nil {
		c.failSubmit(epoch, err, "workflow.submit.tests_failed")
		return err
	}

	c.mu.Lock()
	if epoch != c.snap.Epoch {
		c.snap.Submitting = false
		c.publishLocked()
		return ErrSuperseded
	}
	c.snap.Results = results
	c.snap.Feedback = nil
	c.publishLocked()

	fb, err := c.backend.Submit(ctx, token, api.SubmitRequest{
		Code:        code,
		Question:    q,
		TestResults: results,
		Language:    q.Language,
	})
	if err != nil {
		c.failSubmit(epoch, err, "workflow.submit.failed")
		return err
	}

	c.mu.Lock()
	c.snap.Submitting = false
	if epoch != c.snap.Epoch {
		c.publishLocked()
		return ErrSuperseded
	}
	c.snap.Feedback = &fb
	c.publishLocked()
	c.logger.Info("workflow.submit.ok", map[string]any{"correct": fb.IsCorrect})

	if err := c.RefreshHistory(ctx); err != nil {
		return fmt.Errorf("refresh solved questions: %w", err)
	}
	return nil
}

func (c *Controller) failSubmit(epoch uint64, err error, event string) {
	c.mu.Lock()
	c.snap.Submitting = false
	if epoch == c.snap.Epoch {
		c.snap.Err = api.UserMessage(err)
	}
	c.publishLocked()
	c.logger.Error(event, map[string]any{"error": err.Error()})
}

func (c *Controller) runTests(ctx context.Context, token string, q quiz.Question, code string) ([]quiz.TestCaseResult, error) {
	results, err := c.backend.RunTests(ctx, token, api.RunTestsRequest{Code: code, Question: q, Language: q.Language})
	if err != nil {
		return nil, err
	}
	if len(results) != len(q.TestCases) {
		return nil, &api.Error{
			Kind:     api.KindTransport,
			Endpoint: "run_tests",
			Message:  fmt.Sprintf("got %d results for %d test cases", len(results), len(q.TestCases)),
		}
	}
	return results, nil
}

// SelectHistoryEntry loads a solved question exactly as recorded. No request
// is made.
func (c *Controller) SelectHistoryEntry(s quiz.SolvedQuestion) {
	q := s.Question
	fb := s.Feedback
	c.mu.Lock()
	c.genSeq++
	c.snap.Generating = false
	c.snap.Epoch++
	c.snap.Question = &q
	c.snap.Code = s.UserCode
	c.snap.Results = quiz.CloneResults(s.TestResults)
	c.snap.Feedback = &fb
	c.snap.Err = ""
	c.publishLocked()
}

// SetCode records editor contents without notifying subscribers. Code typed
// for a question that has since been replaced is dropped.
func (c *Controller) SetCode(epoch uint64, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.snap.Epoch {
		return
	}
	c.snap.Code = code
}

// Clear drops the question tuple and invalidates pending responses for it.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.clearLocked()
	c.publishLocked()
}

// Reset is Clear plus the solved-question history, used on sign-out.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.clearLocked()
	c.resets++
	c.snap.History = nil
	c.publishLocked()
}

func (c *Controller) clearLocked() {
	c.genSeq++
	c.snap.Generating = false
	c.snap.Epoch++
	c.snap.Question = nil
	c.snap.Code = ""
	c.snap.Results = nil
	c.snap.Feedback = nil
	c.snap.Err = ""
}

// RefreshHistory replaces the solved-question list with the server's.
func (c *Controller) RefreshHistory(ctx context.Context) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	resets := c.resets
	c.mu.Unlock()

	list, err := c.backend.SolvedQuestions(ctx, token)
	if err != nil {
		c.logger.Error("workflow.history.failed", map[string]any{"error": err.Error()})
		return err
	}
	c.mu.Lock()
	if resets != c.resets {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.snap.History = list
	c.publishLocked()
	return nil
}

func (c *Controller) recordErr(err error) {
	c.mu.Lock()
	c.snap.Err = api.UserMessage(err)
	c.publishLocked()
}

// publishLocked releases c.mu and then notifies subscribers.
func (c *Controller) publishLocked() {
	snap := c.snap
	subs := slices.Clone(c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}
