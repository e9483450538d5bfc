package api

import (
	"context"
	"net/http"
	"net/url"

	"codequiz/internal/quiz"
)

type LoginResponse struct {
	SessionToken string `json:"session_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type RunTestsRequest struct {
	Code     string        `json:"code"`
	Question quiz.Question `json:"question"`
	Language quiz.Language `json:"programming_language"`
}

type SubmitRequest struct {
	Code        string                `json:"code"`
	Question    quiz.Question         `json:"question"`
	TestResults []quiz.TestCaseResult `json:"test_results"`
	Language    quiz.Language         `json:"programming_language"`
}

// LanguageSettings is the per-language record persisted server side.
type LanguageSettings struct {
	Difficulty quiz.Difficulty `json:"difficulty"`
	Topics     []string        `json:"topics"`
}

type runTestsResponse struct {
	Results []quiz.TestCaseResult `json:"results"`
}

func (c *Client) Login(ctx context.Context, credential string) (LoginResponse, error) {
	var out LoginResponse
	err := c.Call(ctx, http.MethodPost, "login", map[string]string{"token": credential}, "", &out)
	return out, err
}

func (c *Client) Refresh(ctx context.Context, token string) (RefreshResponse, error) {
	var out RefreshResponse
	err := c.Call(ctx, http.MethodPost, "refresh", nil, token, &out)
	return out, err
}

func (c *Client) SolvedQuestions(ctx context.Context, token string) ([]quiz.SolvedQuestion, error) {
	var out []quiz.SolvedQuestion
	if err := c.Call(ctx, http.MethodGet, "solved_questions", nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GenerateQuestion(ctx context.Context, token string, s quiz.QuestionSettings) (quiz.Question, error) {
	var out quiz.Question
	err := c.Call(ctx, http.MethodPost, "generate_question", s, token, &out)
	return out, err
}

func (c *Client) RunTests(ctx context.Context, token string, req RunTestsRequest) ([]quiz.TestCaseResult, error) {
	var out runTestsResponse
	if err := c.Call(ctx, http.MethodPost, "run_tests", req, token, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Submit(ctx context.Context, token string, req SubmitRequest) (quiz.Feedback, error) {
	var out quiz.Feedback
	err := c.Call(ctx, http.MethodPost, "submit", req, token, &out)
	return out, err
}

func (c *Client) GetSettings(ctx context.Context, token string, lang quiz.Language) (LanguageSettings, error) {
	var out LanguageSettings
	err := c.Call(ctx, http.MethodGet, "user/settings/"+url.PathEscape(string(lang)), nil, token, &out)
	return out, err
}

func (c *Client) PutSettings(ctx context.Context, token string, lang quiz.Language, s LanguageSettings) error {
	return c.Call(ctx, http.MethodPut, "user/settings/"+url.PathEscape(string(lang)), s, token, nil)
}

var _ Backend = (*Client)(nil)
