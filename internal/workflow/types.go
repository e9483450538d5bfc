package workflow

import "codequiz/internal/quiz"

// Snapshot is one consistent view of the workflow. Snapshots are replaced,
// never edited; slices inside must be treated as read-only.
type Snapshot struct {
	// Epoch changes every time the question tuple is replaced.
	Epoch    uint64
	Question *quiz.Question
	Code     string
	Results  []quiz.TestCaseResult
	Feedback *quiz.Feedback
	History  []quiz.SolvedQuestion

	Generating   bool
	RunningTests bool
	Submitting   bool

	Err string
}

func (s Snapshot) Loaded() bool { return s.Question != nil }

func (s Snapshot) Busy() bool { return s.Generating || s.RunningTests || s.Submitting }
