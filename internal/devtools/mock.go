package devtools

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"codequiz/internal/api"
	"codequiz/internal/catalog"
	"codequiz/internal/quiz"
	"codequiz/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RejectedCredential is the one identity credential the mock refuses.
const RejectedCredential = "invalid"

type Options struct {
	Secret  []byte
	TTL     time.Duration
	Now     func() time.Time
	Bank    QuestionBank
	Catalog *catalog.Catalog
	Logger  *telemetry.Logger
}

type account struct {
	solved   []quiz.SolvedQuestion
	settings map[quiz.Language]api.LanguageSettings
	served   map[quiz.Language]int
}

type Server struct {
	tokens  tokenIssuer
	bank    QuestionBank
	catalog *catalog.Catalog
	logger  *telemetry.Logger

	mu       sync.Mutex
	accounts map[string]*account
	live     map[string]string
	failures map[string]int
}

func NewServer(opts Options) (*Server, error) {
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("codequiz-mock-secret")
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Bank == nil {
		bank, err := LoadBank(nil)
		if err != nil {
			return nil, err
		}
		opts.Bank = bank
	}
	if opts.Catalog == nil {
		cat, err := catalog.Builtin()
		if err != nil {
			return nil, err
		}
		opts.Catalog = cat
	}
	return &Server{
		tokens:   tokenIssuer{secret: opts.Secret, ttl: opts.TTL, now: opts.Now},
		bank:     opts.Bank,
		catalog:  opts.Catalog,
		logger:   opts.Logger,
		accounts: map[string]*account{},
		live:     map[string]string{},
		failures: map[string]int{},
	}, nil
}

// FailNext makes the next call to endpoint answer with status.
func (s *Server) FailNext(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[strings.Trim(endpoint, "/")] = status
}

// Solved returns subject's history, newest first.
func (s *Server) Solved(subject string) []quiz.SolvedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[subject]
	if !ok {
		return nil
	}
	return append([]quiz.SolvedQuestion(nil), acc.solved...)
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.faults)
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/solved_questions", s.handleSolved)
			r.Post("/generate_question", s.handleGenerate)
			r.Post("/run_tests", s.handleRunTests)
			r.Post("/submit", s.handleSubmit)
			r.Get("/user/settings/{language}", s.handleGetSettings)
			r.Put("/user/settings/{language}", s.handlePutSettings)
		})
	})
	return r
}

func (s *Server) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.TrimPrefix(r.URL.Path, "/api/")
		if strings.HasPrefix(endpoint, "user/settings/") {
			endpoint = "user/settings"
		}
		s.mu.Lock()
		status, ok := s.failures[endpoint]
		if ok {
			delete(s.failures, endpoint)
		}
		s.mu.Unlock()
		if ok {
			s.logger.Info("mock.fault", map[string]any{"endpoint": endpoint, "status": status})
			writeDetail(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type subjectKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := s.tokens.parse(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		s.mu.Lock()
		subject, live := s.live[claims.ID]
		s.mu.Unlock()
		if !live || subject != claims.Subject {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), claims.Subject, claims.ID)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Token) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "token is required")
		return
	}
	if body.Token == RejectedCredential {
		writeDetail(w, http.StatusUnauthorized, "Invalid Google token")
		return
	}
	subject := body.Token
	signed, err := s.startSession(subject, "")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("mock.login", map[string]any{"subject": subject})
	writeJSON(w, http.StatusOK, api.LoginResponse{SessionToken: signed, TokenType: "bearer", ExpiresIn: int(s.tokens.ttl.Seconds())})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	subject, tokenID := subjectFrom(r.Context())
	signed, err := s.startSession(subject, tokenID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.RefreshResponse{AccessToken: signed, TokenType: "bearer", ExpiresIn: int(s.tokens.ttl.Seconds())})
}

// startSession issues a token for subject and revokes the one it replaces.
func (s *Server) startSession(subject, replaces string) (string, error) {
	signed, id, err := s.tokens.issue(subject)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if replaces != "" {
		delete(s.live, replaces)
	}
	s.live[id] = subject
	s.accountLocked(subject)
	return signed, nil
}

func (s *Server) accountLocked(subject string) *account {
	acc, ok := s.accounts[subject]
	if !ok {
		acc = &account{settings: map[quiz.Language]api.LanguageSettings{}, served: map[quiz.Language]int{}}
		s.accounts[subject] = acc
	}
	return acc
}

func (s *Server) handleSolved(w http.ResponseWriter, r *http.Request) {
	subject, _ := subjectFrom(r.Context())
	list := s.Solved(subject)
	if list == nil {
		list = []quiz.SolvedQuestion{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req quiz.QuestionSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid settings body")
		return
	}
	if err := req.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	subject, _ := subjectFrom(r.Context())
	s.mu.Lock()
	acc := s.accountLocked(subject)
	n := acc.served[req.Language]
	acc.served[req.Language] = n + 1
	s.mu.Unlock()

	q, ok := s.bank.Next(req.Language, n)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "Failed to generate question")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleRunTests(w http.ResponseWriter, r *http.Request) {
	var req api.RunTestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid run_tests body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": evaluate(req.Question, req.Code)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid submit body")
		return
	}
	fb := grade(req.Question, req.TestResults)
	subject, _ := subjectFrom(r.Context())
	q := req.Question
	if q.Language == "" {
		q.Language = req.Language
	}
	s.mu.Lock()
	acc := s.accountLocked(subject)
	acc.solved = append([]quiz.SolvedQuestion{{
		Question:    q,
		UserCode:    req.Code,
		Feedback:    fb,
		TestResults: quiz.CloneResults(req.TestResults),
	}}, acc.solved...)
	s.mu.Unlock()
	s.logger.Info("mock.submit", map[string]any{"subject": subject, "correct": fb.IsCorrect})
	writeJSON(w, http.StatusOK, fb)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	subject, _ := subjectFrom(r.Context())
	s.mu.Lock()
	stored, found := s.accountLocked(subject).settings[lang]
	s.mu.Unlock()
	if !found {
		def := s.catalog.DefaultSettings(lang)
		stored = api.LanguageSettings{Difficulty: def.Difficulty, Topics: def.Topics}
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	var body api.LanguageSettings
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Difficulty.Valid() {
		writeDetail(w, http.StatusUnprocessableEntity, "difficulty must be Easy, Medium or Hard")
		return
	}
	subject, _ := subjectFrom(r.Context())
	s.mu.Lock()
	s.accountLocked(subject).settings[lang] = api.LanguageSettings{Difficulty: body.Difficulty, Topics: append([]string{}, body.Topics...)}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) language(w http.ResponseWriter, r *http.Request) (quiz.Language, bool) {
	lang, err := quiz.ParseLanguage(chi.URLParam(r, "language"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return lang, true
}

// evaluate pretends to run code. Code is never executed: every case passes
// unless the code still carries a TODO marker.
func evaluate(q quiz.Question, code string) []quiz.TestCaseResult {
	unfinished := strings.TrimSpace(code) == "" || strings.Contains(code, "TODO")
	out := make([]quiz.TestCaseResult, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		res := quiz.TestCaseResult{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput}
		if !unfinished {
			res.ActualOutput = tc.ExpectedOutput
		}
		out = append(out, res)
	}
	return out
}

func grade(q quiz.Question, results []quiz.TestCaseResult) quiz.Feedback {
	passed := quiz.PassedCount(results)
	correct := len(results) > 0 && passed == len(results) && len(results) == len(q.TestCases)
	if correct {
		return quiz.Feedback{
			IsCorrect:  true,
			Feedback:   "All test cases pass. Nicely done.",
			Strengths:  []string{"Handles every provided input"},
			Weaknesses: []string{},
		}
	}
	return quiz.Feedback{
		IsCorrect:  false,
		Feedback:   "Some test cases still fail. Compare the actual and expected output.",
		Strengths:  []string{},
		Weaknesses: []string{"Output does not match for every input"},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

var _ Mock = (*Server)(nil)
