package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Authorizer obtains a brand new token, usually by asking the user.
type Authorizer func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

// BrowserAuthorizer runs the authorization-code flow through a local
// callback server on port. notify receives the consent URL before the
// browser is opened so it can be shown when no browser is available.
func BrowserAuthorizer(port int, open func(string) error, notify func(string)) Authorizer {
	return func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
		server := NewCallbackServer(port)
		if err := server.Start(); err != nil {
			return nil, err
		}

		cfg := *config
		cfg.RedirectURL = server.RedirectURL()
		flow := NewFlow(&cfg)
		authURL, state := flow.GenerateAuthURL()

		if notify != nil {
			notify(authURL)
		}
		if open != nil {
			_ = open(authURL)
		}

		code, err := server.WaitForCallback(ctx, state, 5*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
		return flow.ExchangeCode(ctx, code)
	}
}

// Authenticator hands out access tokens for the one identity of the
// process. The underlying token source is created on first use and reused
// afterwards; refreshed tokens are written back to storage.
type Authenticator struct {
	secretsPath string
	storage     *TokenStorage
	authorize   Authorizer
	httpClient  *http.Client
	logger      *slog.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
}

type AuthenticatorOption func(*Authenticator)

// WithAuthorizer enables interactive authorization when no token is cached.
func WithAuthorizer(authorize Authorizer) AuthenticatorOption {
	return func(a *Authenticator) { a.authorize = authorize }
}

// WithTokenHTTPClient sets the client used for refresh requests.
func WithTokenHTTPClient(client *http.Client) AuthenticatorOption {
	return func(a *Authenticator) { a.httpClient = client }
}

func WithLogger(logger *slog.Logger) AuthenticatorOption {
	return func(a *Authenticator) { a.logger = logger }
}

func NewAuthenticator(secretsPath string, storage *TokenStorage, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		secretsPath: secretsPath,
		storage:     storage,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Token returns a valid access token, refreshing it when expired. Every
// failure wraps ErrAuthentication.
//
// When the token endpoint rejects the refresh (a revoked or expired refresh
// token), the cached source is dropped: the interactive flow runs again if
// an Authorizer is configured, otherwise the next call reloads storage.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	source, err := a.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	token, err := source.Token()
	if err == nil {
		return token, nil
	}

	var rejected *oauth2.RetrieveError
	if !errors.As(err, &rejected) {
		return nil, err
	}
	a.dropSource(source)
	if a.authorize == nil {
		return nil, err
	}
	a.logger.Warn("token refresh rejected, starting interactive authorization",
		slog.String("error_code", rejected.ErrorCode))
	return a.Authorize(ctx)
}

func (a *Authenticator) dropSource(source oauth2.TokenSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.source == source {
		a.source = nil
	}
}

// Authorize runs the interactive flow unconditionally and replaces the
// cached token.
func (a *Authenticator) Authorize(ctx context.Context) (*oauth2.Token, error) {
	if a.authorize == nil {
		return nil, fmt.Errorf("%w: interactive authorization is disabled", ErrAuthentication)
	}
	config, err := LoadClientSecrets(a.secretsPath, "")
	if err != nil {
		return nil, err
	}
	token, err := a.authorize(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if err := a.storage.Save(token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	a.mu.Lock()
	a.source = a.newSource(config, token)
	a.mu.Unlock()
	return token, nil
}

func (a *Authenticator) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.source != nil {
		return a.source, nil
	}

	config, err := LoadClientSecrets(a.secretsPath, "")
	if err != nil {
		return nil, err
	}

	token, err := a.storage.Load()
	switch {
	case errors.Is(err, ErrTokenNotFound):
		if a.authorize == nil {
			return nil, fmt.Errorf("%w: no cached token at %s (run 'ytfeed auth')", ErrAuthentication, a.storage.Path())
		}
		a.logger.Info("no cached token, starting interactive authorization")
		token, err = a.authorize(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		if err := a.storage.Save(token); err != nil {
			a.logger.Warn("failed to save token", slog.Any("error", err))
		}
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	a.source = a.newSource(config, token)
	return a.source, nil
}

func (a *Authenticator) newSource(config *oauth2.Config, token *oauth2.Token) oauth2.TokenSource {
	// Refreshes outlive the request that triggered them.
	ctx := context.Background()
	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	return &persistingSource{
		base:    config.TokenSource(ctx, token),
		storage: a.storage,
		logger:  a.logger,
		last:    token.AccessToken,
	}
}

type persistingSource struct {
	base    oauth2.TokenSource
	storage *TokenStorage
	logger  *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh failed: %w", ErrAuthentication, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.storage.Save(token); err != nil {
			s.logger.Warn("failed to persist refreshed token", slog.Any("error", err))
		} else {
			s.logger.Debug("persisted refreshed token", slog.Time("expiry", token.Expiry))
		}
		s.last = token.AccessToken
	}
	return token, nil
}
