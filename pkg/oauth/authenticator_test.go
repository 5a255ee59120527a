package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestAuthenticator_ReusesValidCachedToken(t *testing.T) {
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	_ = storage.Save(&oauth2.Token{
		AccessToken:  "cached",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	})

	auth := NewAuthenticator(writeClientSecrets(t, "http://127.0.0.1:1/token"), storage)

	token, err := auth.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "cached" {
		t.Errorf("expected cached token, got %q", token.AccessToken)
	}
}

func TestAuthenticator_RefreshesAndPersistsExpiredToken(t *testing.T) {
	refreshes := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		_ = r.ParseForm()
		if r.FormValue("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.FormValue("grant_type"))
		}
		if r.FormValue("refresh_token") != "refresh" {
			t.Errorf("expected stored refresh token, got %q", r.FormValue("refresh_token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	_ = storage.Save(&oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	})

	auth := NewAuthenticator(writeClientSecrets(t, server.URL), storage)

	token, err := auth.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "fresh" {
		t.Errorf("expected refreshed token, got %q", token.AccessToken)
	}

	saved, err := storage.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.AccessToken != "fresh" {
		t.Errorf("refreshed token should be persisted, got %q", saved.AccessToken)
	}
	if saved.RefreshToken != "refresh" {
		t.Errorf("refresh token should survive the refresh, got %q", saved.RefreshToken)
	}

	if _, err := auth.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if refreshes != 1 {
		t.Errorf("a fresh token should be reused, got %d refreshes", refreshes)
	}
}

func TestAuthenticator_UnrefreshableTokenIsAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	_ = storage.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})

	_, err := NewAuthenticator(writeClientSecrets(t, server.URL), storage).Token(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func revokingTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAuthenticator_RevokedRefreshReauthorizes(t *testing.T) {
	server := revokingTokenServer(t)
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	_ = storage.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})

	calls := 0
	authorize := func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
		calls++
		return &oauth2.Token{AccessToken: "regranted", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
	}
	auth := NewAuthenticator(writeClientSecrets(t, server.URL), storage, WithAuthorizer(authorize))

	token, err := auth.Token(context.Background())
	if err != nil {
		t.Fatalf("a rejected refresh should fall back to authorization: %v", err)
	}
	if token.AccessToken != "regranted" || calls != 1 {
		t.Errorf("expected one re-authorization, got token %q after %d calls", token.AccessToken, calls)
	}
	if saved, err := storage.Load(); err != nil || saved.AccessToken != "regranted" {
		t.Errorf("new grant should replace the revoked token, got %v, %v", saved, err)
	}

	if _, err := auth.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("the new grant should be reused, authorizer ran %d times", calls)
	}
}

func TestAuthenticator_RevokedRefreshReloadsStorage(t *testing.T) {
	server := revokingTokenServer(t)
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	_ = storage.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})
	auth := NewAuthenticator(writeClientSecrets(t, server.URL), storage)

	if _, err := auth.Token(context.Background()); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}

	// 'ytfeed auth' run from another terminal.
	_ = storage.Save(&oauth2.Token{AccessToken: "replaced", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})

	token, err := auth.Token(context.Background())
	if err != nil {
		t.Fatalf("a token saved after the failure should be picked up: %v", err)
	}
	if token.AccessToken != "replaced" {
		t.Errorf("expected replaced token, got %q", token.AccessToken)
	}
}

func TestAuthenticator_MissingClientSecrets(t *testing.T) {
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	auth := NewAuthenticator(filepath.Join(t.TempDir(), "credentials.json"), storage)

	_, err := auth.Token(context.Background())
	if !errors.Is(err, ErrClientSecretsNotFound) {
		t.Errorf("expected ErrClientSecretsNotFound, got %v", err)
	}
}

func TestAuthenticator_NoTokenWithoutAuthorizer(t *testing.T) {
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	auth := NewAuthenticator(writeClientSecrets(t, "http://127.0.0.1:1/token"), storage)

	_, err := auth.Token(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func TestAuthenticator_RunsAuthorizerOnceWhenNoToken(t *testing.T) {
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	calls := 0
	authorize := func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
		calls++
		return &oauth2.Token{AccessToken: "granted", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
	}

	auth := NewAuthenticator(writeClientSecrets(t, "http://127.0.0.1:1/token"), storage, WithAuthorizer(authorize))

	for i := 0; i < 2; i++ {
		token, err := auth.Token(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "granted" {
			t.Errorf("wrong token: %q", token.AccessToken)
		}
	}
	if calls != 1 {
		t.Errorf("authorizer should run once, ran %d times", calls)
	}
	if saved, err := storage.Load(); err != nil || saved.AccessToken != "granted" {
		t.Errorf("granted token should be saved, got %v, %v", saved, err)
	}
}

func TestAuthenticator_AuthorizeRequiresAuthorizer(t *testing.T) {
	storage := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	auth := NewAuthenticator(writeClientSecrets(t, "http://127.0.0.1:1/token"), storage)

	_, err := auth.Authorize(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}
