package quiz

import "strings"

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

type TestCaseResult struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
}

// Passed compares outputs ignoring trailing whitespace; the backend is not
// consistent about final newlines.
func (r TestCaseResult) Passed() bool {
	return strings.TrimRight(r.ActualOutput, " \t\r\n") == strings.TrimRight(r.ExpectedOutput, " \t\r\n")
}

type Question struct {
	ID        *int       `json:"id,omitempty"`
	Name      string     `json:"name"`
	Text      string     `json:"text"`
	TestCases []TestCase `json:"testCases"`
	Hint      string     `json:"hint"`
	Language  Language   `json:"programming_language"`
}

type Feedback struct {
	IsCorrect  bool     `json:"isCorrect"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type SolvedQuestion struct {
	Question    Question         `json:"question"`
	UserCode    string           `json:"userCode"`
	Feedback    Feedback         `json:"feedback"`
	TestResults []TestCaseResult `json:"testResults"`
}

// Aligned reports whether results can be paired index by index with the
// question's test cases. An empty result set is aligned with any question.
func Aligned(q Question, results []TestCaseResult) bool {
	return len(results) == 0 || len(results) == len(q.TestCases)
}

func PassedCount(results []TestCaseResult) int {
	n := 0
	for _, r := range results {
		if r.Passed() {
			n++
		}
	}
	return n
}

func CloneResults(in []TestCaseResult) []TestCaseResult {
	if in == nil {
		return nil
	}
	return append([]TestCaseResult(nil), in...)
}
