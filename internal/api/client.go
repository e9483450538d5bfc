package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"codequiz/internal/telemetry"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const maxBodyBytes = 4 << 20

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *telemetry.Logger
}

// Client is the only place the app talks HTTP.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenClearer
	logger *telemetry.Logger
}

func New(opts Options, tokens TokenClearer) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "http://localhost:8000"
	}
	return &Client{base: base, http: hc, tokens: tokens, logger: opts.Logger}
}

func (c *Client) BaseURL() string { return c.base }

// Call sends body as JSON to <base>/api/<endpoint> and decodes a 2xx response
// into out. Every failure is an *Error.
func (c *Client) Call(ctx context.Context, method, endpoint string, body any, token string, out any) error {
	endpoint = strings.Trim(endpoint, "/")
	reqID := uuid.NewString()
	fail := func(kind Kind, status int, msg string, err error) error {
		return &Error{Kind: kind, Endpoint: endpoint, Status: status, Message: msg, RequestID: reqID, Err: err}
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fail(KindTransport, 0, "could not encode request", err)
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+"/api/"+endpoint, payload)
	if err != nil {
		return fail(KindTransport, 0, "could not build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	started := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("api.call.transport_failed", map[string]any{"endpoint": endpoint, "request_id": reqID, "error": err.Error()})
		return fail(KindTransport, 0, "request failed", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return fail(KindTransport, res.StatusCode, "could not read response", err)
	}
	c.logger.Debug("api.call", map[string]any{
		"endpoint":    endpoint,
		"method":      method,
		"status":      res.StatusCode,
		"request_id":  reqID,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if res.StatusCode/100 != 2 {
		detail := parseErrorBody(raw)
		if res.StatusCode == http.StatusUnauthorized {
			if c.tokens != nil {
				if err := c.tokens.ClearToken(context.WithoutCancel(ctx)); err != nil {
					c.logger.Error("api.token_clear_failed", map[string]any{"error": err.Error()})
				}
			}
			c.logger.Info("api.unauthenticated", map[string]any{"endpoint": endpoint, "detail": detail})
			return fail(KindUnauthenticated, res.StatusCode, SessionExpiredMessage, nil)
		}
		if detail == "" {
			detail = fallbackAPIMessage
		}
		c.logger.Error("api.call.failed", map[string]any{"endpoint": endpoint, "status": res.StatusCode, "detail": detail})
		return fail(KindAPI, res.StatusCode, detail, nil)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fail(KindTransport, res.StatusCode, "empty response body", nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(KindTransport, res.StatusCode, "malformed response body", err)
	}
	return nil
}

// parseErrorBody extracts a human message from FastAPI-style error bodies.
// An empty or unparsable body yields "".
func parseErrorBody(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		v, ok := body[key]
		if !ok {
			continue
		}
		if msg := messageFrom(v); msg != "" {
			return msg
		}
	}
	return ""
}

func messageFrom(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// Validation errors arrive as [{"loc": [...], "msg": "..."}].
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(v, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				parts = append(parts, m)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// IsUnauthenticated is shorthand for errors.Is(err, ErrUnauthenticated).
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
