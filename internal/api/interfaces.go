package api

import (
	"context"

	"codequiz/internal/quiz"
)

// TokenClearer is the slice of the token store the client needs to drop a
// rejected credential.
type TokenClearer interface {
	ClearToken(ctx context.Context) error
}

// Backend is the typed surface the controllers depend on.
type Backend interface {
	Login(ctx context.Context, credential string) (LoginResponse, error)
	Refresh(ctx context.Context, token string) (RefreshResponse, error)
	SolvedQuestions(ctx context.Context, token string) ([]quiz.SolvedQuestion, error)
	GenerateQuestion(ctx context.Context, token string, s quiz.QuestionSettings) (quiz.Question, error)
	RunTests(ctx context.Context, token string, req RunTestsRequest) ([]quiz.TestCaseResult, error)
	Submit(ctx context.Context, token string, req SubmitRequest) (quiz.Feedback, error)
	GetSettings(ctx context.Context, token string, lang quiz.Language) (LanguageSettings, error)
	PutSettings(ctx context.Context, token string, lang quiz.Language, s LanguageSettings) error
}
