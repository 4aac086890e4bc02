package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
)

// Config - доступ к проекту Supabase
type Config struct {
	BaseURL string // https://<project>.supabase.co
	AnonKey string
	Timeout time.Duration
}

// client - общая часть клиентов аутентификации и хранилища
type client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func newClient(cfg Config) (*client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("supabase base URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// apiError - тело ошибки GoTrue и Storage. Разные версии API используют разные поля.
type apiError struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// statusError - ответ провайдера с кодом не 2xx
type statusError struct {
	Status int
	Body   apiError
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body.text())
}

// newRequest собирает запрос с ключом проекта, токеном пользователя и trace id
func (c *client) newRequest(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	token := accessToken
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	return req, nil
}

// doJSON отправляет JSON и декодирует JSON-ответ в out (если out != nil)
func (c *client) doJSON(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, accessToken, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &statusError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, &se.Body); err != nil {
			se.Body.Message = strings.TrimSpace(string(raw))
		}
		return se
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstream, err)
	}
	return nil
}
