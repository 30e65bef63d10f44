// Package api implements the HTTP client for the remote todo store.
// A primary endpoint and a secondary mirror are tried in sequence; callers
// only see success or failure, never which endpoint answered.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskwire/taskwire/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет интерфейс HTTP клиента для координатора
type ClientAPI interface {
	// Register регистрирует нового пользователя
	Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error)

	// Login выполняет аутентификацию пользователя
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// ListTodos returns the full remote collection
	ListTodos(ctx context.Context, accessToken string) ([]api.Todo, error)

	// CreateTodo stores a new todo with its client-assigned id
	CreateTodo(ctx context.Context, accessToken string, todo api.Todo) (*api.Todo, error)

	// UpdateTodo replaces a todo wholesale
	UpdateTodo(ctx context.Context, accessToken string, todo api.Todo) (*api.Todo, error)

	// DeleteTodo removes a todo
	DeleteTodo(ctx context.Context, accessToken string, id int64) error
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	endpoints  []string // ordered: primary first, then mirrors
}

// Compile-time check that Client implements ClientAPI
var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент.
// endpoints перечисляются в порядке приоритета: primary, затем mirror.
func NewClient(endpoints ...string) *Client {
	return &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// ListTodos returns the full remote collection
func (c *Client) ListTodos(ctx context.Context, accessToken string) ([]api.Todo, error) {
	var resp []api.Todo
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/todos", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("list todos request failed: %w", err)
	}
	return resp, nil
}

// CreateTodo stores a new todo with its client-assigned id
func (c *Client) CreateTodo(ctx context.Context, accessToken string, todo api.Todo) (*api.Todo, error) {
	var resp api.Todo
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/todos", accessToken, todo, &resp); err != nil {
		return nil, fmt.Errorf("create todo request failed: %w", err)
	}
	return &resp, nil
}

// UpdateTodo replaces a todo wholesale
func (c *Client) UpdateTodo(ctx context.Context, accessToken string, todo api.Todo) (*api.Todo, error) {
	var resp api.Todo
	path := fmt.Sprintf("/api/v1/todos/%d", todo.ID)
	if err := c.doRequest(ctx, http.MethodPut, path, accessToken, todo, &resp); err != nil {
		return nil, fmt.Errorf("update todo request failed: %w", err)
	}
	return &resp, nil
}

// DeleteTodo removes a todo
func (c *Client) DeleteTodo(ctx context.Context, accessToken string, id int64) error {
	path := fmt.Sprintf("/api/v1/todos/%d", id)
	if err := c.doRequest(ctx, http.MethodDelete, path, accessToken, nil, nil); err != nil {
		return fmt.Errorf("delete todo request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос, перебирая endpoints по порядку.
// Возвращает nil после первого успешного ответа; ошибка любого рода
// (сеть, non-2xx) переводит запрос на следующий endpoint.
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result any) error {
	var bodyData []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyData = data
	}

	var lastErr error
	for _, endpoint := range c.endpoints {
		err := c.doOnce(ctx, method, endpoint+path, accessToken, bodyData, result)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}

	if lastErr == nil {
		return errors.New("no endpoints configured")
	}
	return lastErr
}

// doOnce выполняет один запрос к одному endpoint
func (c *Client) doOnce(ctx context.Context, method, url, accessToken string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
