// Package contracts pins the wire formats ytfeed depends on: YouTube Data API
// v3 list responses and error envelopes, the channel uploads Atom feed and the
// OAuth 2.0 token response. Fixtures in testdata/ follow the documented
// response shapes, including fields ytfeed ignores.
package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/youtube"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/ytrss"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/pkg/oauth"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

// serveFixtures maps request paths to fixtures. A "?pageToken=" suffix in a
// key matches only requests carrying that token.
func serveFixtures(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			key += "?pageToken=" + tok
		}
		name, ok := routes[key]
		if !ok {
			t.Errorf("unexpected request %s", key)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		status := http.StatusOK
		if strings.HasPrefix(name, "error_") {
			var envelope struct {
				Error struct {
					Code int `json:"code"`
				} `json:"error"`
			}
			_ = json.Unmarshal(fixture(t, name), &envelope)
			status = envelope.Error.Code
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(fixture(t, name))
	}))
	t.Cleanup(server.Close)
	return server
}

func newClient(url string) *youtube.Client {
	return youtube.NewClient(youtube.StaticToken(&oauth2.Token{AccessToken: "test", TokenType: "Bearer"}),
		youtube.WithBaseURL(url))
}

// TestFixtures_AreValidJSON guards the fixtures themselves.
func TestFixtures_AreValidJSON(t *testing.T) {
	entries, err := os.ReadDir("testdata")
	if err != nil {
		t.Fatalf("failed to list testdata: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var v any
		if err := json.Unmarshal(fixture(t, entry.Name()), &v); err != nil {
			t.Errorf("%s is invalid JSON: %v", entry.Name(), err)
		}
	}
}

func TestSubscriptionListResponse_Contract(t *testing.T) {
	server := serveFixtures(t, map[string]string{
		"/youtube/v3/subscriptions":                   "subscriptions.json",
		"/youtube/v3/subscriptions?pageToken=CAUQAA": "subscriptions_page2.json",
	})

	subs, err := newClient(server.URL).FetchSubscriptions(context.Background())
	if err != nil {
		t.Fatalf("should parse response: %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("expected both pages to be read, got %d subscriptions", len(subs))
	}
	first := subs[0]
	if first.ChannelID != "UC_x5XG1OV2P6uZZ5FSM9Ttw" {
		t.Errorf("channel id must come from snippet.resourceId.channelId, got %q", first.ChannelID)
	}
	if first.ChannelTitle != "The Go Programming Language" {
		t.Errorf("unexpected title %q", first.ChannelTitle)
	}
	if first.Thumbnail != "https://yt3.ggpht.com/go=s88" {
		t.Errorf("expected default thumbnail, got %q", first.Thumbnail)
	}
	want := time.Date(2021, 6, 2, 18, 4, 11, 0, time.UTC)
	if !first.SubscribedAt.Equal(want) {
		t.Errorf("publishedAt with fractional seconds should parse, got %v", first.SubscribedAt)
	}
	if subs[1].ChannelID != "UCx9QVEApa5BKLw9r8cnOFEA" {
		t.Errorf("second page should follow the first, got %+v", subs[1])
	}
}

func TestChannelAndPlaylistItemResponses_Contract(t *testing.T) {
	server := serveFixtures(t, map[string]string{
		"/youtube/v3/channels":      "channels.json",
		"/youtube/v3/playlistItems": "playlist_items.json",
	})

	items, err := newClient(server.URL).RecentUploads(context.Background(), "UC_x5XG1OV2P6uZZ5FSM9Ttw", 10)
	if err != nil {
		t.Fatalf("should parse responses: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("video id must come from snippet.resourceId.videoId, got %q", item.VideoID)
	}
	if item.Thumbnail != "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg" {
		t.Errorf("expected medium thumbnail, got %q", item.Thumbnail)
	}
	if !item.PublishedAt.Equal(time.Date(2024, 3, 9, 16, 0, 7, 0, time.UTC)) {
		t.Errorf("unexpected publishedAt %v", item.PublishedAt)
	}
	if item.ChannelTitle != "The Go Programming Language" {
		t.Errorf("unexpected channel title %q", item.ChannelTitle)
	}
}

func TestQuotaErrorEnvelope_Contract(t *testing.T) {
	server := serveFixtures(t, map[string]string{
		"/youtube/v3/subscriptions": "error_quota.json",
	})

	_, err := newClient(server.URL).FetchSubscriptions(context.Background())

	var apiErr *youtube.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *youtube.APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Reason != "quotaExceeded" {
		t.Errorf("reason must come from error.errors[0].reason, got %+v", apiErr)
	}
	if !errors.Is(err, youtube.ErrTransport) {
		t.Errorf("quota exhaustion should be a transport failure, got %v", err)
	}
}

func TestPlaylistNotFoundEnvelope_Contract(t *testing.T) {
	server := serveFixtures(t, map[string]string{
		"/youtube/v3/playlistItems": "error_playlist_not_found.json",
	})

	_, err := newClient(server.URL).FetchPlaylistItems(context.Background(), "UUgone", 10)

	if !errors.Is(err, youtube.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestUploadsAtomFeed_Contract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feeds/videos.xml" || r.URL.Query().Get("channel_id") != "UC_x5XG1OV2P6uZZ5FSM9Ttw" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/atom+xml; charset=UTF-8")
		_, _ = w.Write(fixture(t, "uploads_feed.xml"))
	}))
	defer server.Close()

	items, err := ytrss.NewClient(ytrss.WithBaseURL(server.URL)).
		RecentUploads(context.Background(), "UC_x5XG1OV2P6uZZ5FSM9Ttw", 10)
	if err != nil {
		t.Fatalf("should parse feed: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	item := items[0]
	if item.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("video id must come from yt:videoId, got %q", item.VideoID)
	}
	if item.Description != "Highlights of the Go 1.22 release." {
		t.Errorf("description must come from media:group/media:description, got %q", item.Description)
	}
	if item.Thumbnail != "https://i1.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Errorf("thumbnail must come from media:thumbnail@url, got %q", item.Thumbnail)
	}
	if !item.PublishedAt.Equal(time.Date(2024, 3, 9, 16, 0, 7, 0, time.UTC)) {
		t.Errorf("expected published, not updated, timestamp; got %v", item.PublishedAt)
	}
}

// TestOAuthTokenResponse_Contract checks the RFC 6749 section 5.1 response
// Google returns from the token endpoint.
func TestOAuthTokenResponse_Contract(t *testing.T) {
	var raw map[string]any
	if err := json.Unmarshal(fixture(t, "token.json"), &raw); err != nil {
		t.Fatalf("invalid token fixture: %v", err)
	}
	for _, field := range []string{"access_token", "token_type"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("token response missing required field %s", field)
		}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("code_verifier") == "" {
			t.Error("expected a PKCE code_verifier")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture(t, "token.json"))
	}))
	defer server.Close()

	flow := oauth.NewFlow(&oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8085/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"},
		Scopes:       []string{oauth.YouTubeReadonlyScope},
	})
	flow.GenerateAuthURL()

	token, err := flow.ExchangeCode(context.Background(), "4/0Adeu5BW")
	if err != nil {
		t.Fatalf("should parse token response: %v", err)
	}
	if token.AccessToken != "ya29.a0AfH6SMBx" || token.RefreshToken != "1//0gLr2" {
		t.Errorf("unexpected token: %+v", token)
	}
	if token.Expiry.IsZero() {
		t.Error("expires_in should set an expiry")
	}
}
