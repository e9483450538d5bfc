package workflow

import (
	"context"

	"codequiz/internal/api"
	"codequiz/internal/quiz"
)

type Backend interface {
	SolvedQuestions(ctx context.Context, token string) ([]quiz.SolvedQuestion, error)
	GenerateQuestion(ctx context.Context, token string, s quiz.QuestionSettings) (quiz.Question, error)
	RunTests(ctx context.Context, token string, req api.RunTestsRequest) ([]quiz.TestCaseResult, error)
	Submit(ctx context.Context, token string, req api.SubmitRequest) (quiz.Feedback, error)
}

type Credentials interface {
	Token(ctx context.Context) (string, error)
}

type SettingsSource interface {
	Current() quiz.QuestionSettings
}
