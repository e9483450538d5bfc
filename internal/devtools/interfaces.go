package devtools

import (
	"net/http"

	"codequiz/internal/quiz"
)

// Mock is the in-memory quiz backend used for demos and integration tests.
type Mock interface {
	Handler() http.Handler
	FailNext(endpoint string, status int)
	Solved(subject string) []quiz.SolvedQuestion
}

type QuestionBank interface {
	Next(lang quiz.Language, n int) (quiz.Question, bool)
}
