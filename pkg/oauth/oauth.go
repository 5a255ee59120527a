// Package oauth provides the OAuth 2.0 credential lifecycle for ytfeed:
// client secrets, the browser authorization-code flow, token storage and
// silent refresh.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// YouTubeReadonlyScope is the only scope ytfeed requests.
const YouTubeReadonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

var (
	// ErrAuthentication marks every failure to obtain a usable credential.
	ErrAuthentication = errors.New("authentication failed")

	ErrClientSecretsNotFound = errors.New("client secrets file not found")
	ErrTokenNotFound         = errors.New("token not found")
	ErrInvalidState          = errors.New("invalid state parameter")
)

// LoadClientSecrets reads a Google client secrets file (the credentials.json
// downloaded from the Cloud Console). A non-empty redirectURL overrides the
// one declared in the file.
func LoadClientSecrets(path, redirectURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from local configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w: %s (download OAuth2 credentials from Google Cloud Console)",
				ErrAuthentication, ErrClientSecretsNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read client secrets: %w", ErrAuthentication, err)
	}

	config, err := google.ConfigFromJSON(data, YouTubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse client secrets: %w", ErrAuthentication, err)
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}
	return config, nil
}

// Flow runs one authorization-code exchange. It is not reusable across
// attempts because it remembers the PKCE verifier of the last auth URL.
type Flow struct {
	config     oauth2.Config
	httpClient *http.Client
	verifier   string
}

type FlowOption func(*Flow)

// WithHTTPClient sets the client used to talk to the token endpoint.
func WithHTTPClient(client *http.Client) FlowOption {
	return func(f *Flow) { f.httpClient = client }
}

func NewFlow(config *oauth2.Config, opts ...FlowOption) *Flow {
	f := &Flow{config: *config}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GenerateAuthURL returns the consent page URL and the state value the
// callback must echo back.
func (f *Flow) GenerateAuthURL() (authURL, state string) {
	state = randomState()
	f.verifier = oauth2.GenerateVerifier()
	authURL = f.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(f.verifier),
	)
	return authURL, state
}

// ExchangeCode trades an authorization code for a token.
func (f *Flow) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if f.verifier != "" {
		opts = append(opts, oauth2.VerifierOption(f.verifier))
	}
	token, err := f.config.Exchange(f.context(ctx), code, opts...)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}

func (f *Flow) context(ctx context.Context) context.Context {
	if f.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

func randomState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("oauth: crypto/rand failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
