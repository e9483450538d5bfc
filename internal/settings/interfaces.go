package settings

import (
	"context"

	"codequiz/internal/api"
	"codequiz/internal/quiz"
)

type Backend interface {
	GetSettings(ctx context.Context, token string, lang quiz.Language) (api.LanguageSettings, error)
	PutSettings(ctx context.Context, token string, lang quiz.Language, s api.LanguageSettings) error
}

type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// Workflow is the part of the question workflow a language switch drives.
type Workflow interface {
	Clear()
	Regenerate(ctx context.Context, s quiz.QuestionSettings) error
}
