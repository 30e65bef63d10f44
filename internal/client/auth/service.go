// Package auth manages the client session: register/login against the
// remote store and the locally persisted bearer credential.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apiclient "github.com/taskwire/taskwire/internal/client/api"
	"github.com/taskwire/taskwire/internal/client/storage"
	"github.com/taskwire/taskwire/internal/validation"
	"github.com/taskwire/taskwire/pkg/api"
)

var (
	// ErrNotAuthenticated is returned when no session is stored.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired is returned when the stored credential expired.
	// The session data stays in place so the username can prefill re-login.
	ErrSessionExpired = errors.New("session expired")
)

// Service предоставляет функции авторизации
type Service struct {
	apiClient apiclient.ClientAPI
	store     storage.AuthStorage
	logger    *slog.Logger
}

// NewService создает новый сервис авторизации
func NewService(apiClient apiclient.ClientAPI, store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
	}
}

// Register регистрирует нового пользователя и сохраняет сессию локально
func (s *Service) Register(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return s.persistSession(ctx, resp)
}

// Login выполняет аутентификацию пользователя и сохраняет сессию локально
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return s.persistSession(ctx, resp)
}

// Logout удаляет локальную сессию. Сервер не уведомляется: токен просто
// истечет сам.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CurrentSession returns the stored session, checking expiry. Callers get
// ErrNotAuthenticated when no session exists and ErrSessionExpired when the
// credential is past its lifetime.
func (s *Service) CurrentSession(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if auth.ExpiresAt > 0 && auth.ExpiresAt <= time.Now().Unix() {
		return nil, ErrSessionExpired
	}
	return auth, nil
}

// persistSession stores the fresh session. Expiry is read from the token
// itself when possible; the server-reported lifetime is the fallback.
func (s *Service) persistSession(ctx context.Context, resp *api.TokenResponse) (*storage.AuthData, error) {
	expiresAt, err := tokenExpiry(resp.AccessToken)
	if err != nil {
		s.logger.Debug("Token carries no readable expiry, using reported lifetime", "error", err)
		expiresAt = time.Now().Unix() + resp.ExpiresIn
	}

	auth := &storage.AuthData{
		UserID:      resp.UserID,
		Username:    resp.Username,
		AccessToken: resp.AccessToken,
		ExpiresAt:   expiresAt,
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return auth, nil
}

func validateCredentials(username, password string) error {
	return validation.ValidateCredentials(strings.TrimSpace(username), password)
}
