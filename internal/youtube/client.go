package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://www.googleapis.com"

	// maxPageSize is the largest maxResults the Data API accepts.
	maxPageSize = 50

	defaultPlaylistCacheSize = 512
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials supplies a valid access token for each request.
type Credentials interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

type staticToken struct {
	token *oauth2.Token
}

func (s staticToken) Token(context.Context) (*oauth2.Token, error) {
	return s.token, nil
}

// StaticToken wraps a fixed token, mostly for tests and one-off scripts.
func StaticToken(token *oauth2.Token) Credentials {
	return staticToken{token: token}
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout bounds every request. Zero keeps the HTTP client's own setting.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit paces outgoing requests. Non-positive means unlimited.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithPlaylistCache sets how many channel -> uploads playlist mappings are
// remembered. Zero disables the cache.
func WithPlaylistCache(size int) ClientOption {
	return func(c *Client) {
		c.cacheSize = size
	}
}

// Client is a YouTube Data API client.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient HTTPClient
	timeout    time.Duration
	limiter    *rate.Limiter
	cacheSize  int
	playlists  *lru.Cache[string, string]
}

// NewClient creates a new YouTube API client backed by the given credentials.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		creds:      creds,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		cacheSize:  defaultPlaylistCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		c.playlists, _ = lru.New[string, string](c.cacheSize)
	}

	return c
}

// FetchSubscriptions retrieves every channel the authenticated user is
// subscribed to, following pageToken until the listing is exhausted.
func (c *Client) FetchSubscriptions(ctx context.Context) ([]Subscription, error) {
	subs := make([]Subscription, 0)
	pageToken := ""

	for {
		params := url.Values{
			"part":       {"snippet"},
			"mine":       {"true"},
			"maxResults": {fmt.Sprint(maxPageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		body, err := c.doRequest(ctx, "subscriptions", params)
		if err != nil {
			return nil, err
		}

		var response subscriptionsResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("%w: failed to parse subscriptions response: %w", ErrTransport, err)
		}

		for _, item := range response.Items {
			publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			subs = append(subs, Subscription{
				ChannelID:    item.Snippet.ResourceID.ChannelID,
				ChannelTitle: item.Snippet.Title,
				Description:  item.Snippet.Description,
				Thumbnail:    item.Snippet.Thumbnails.Default.URL,
				SubscribedAt: publishedAt.UTC(),
			})
		}

		// A repeated token would loop forever.
		if response.NextPageToken == "" || response.NextPageToken == pageToken {
			return subs, nil
		}
		pageToken = response.NextPageToken
	}
}

// UploadsPlaylistID resolves the channel's uploads playlist. Results are
// cached; the mapping never changes for a channel.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	if c.playlists != nil {
		if id, ok := c.playlists.Get(channelID); ok {
			return id, nil
		}
	}

	body, err := c.doRequest(ctx, "channels", url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	})
	if err != nil {
		return "", err
	}

	var response channelsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%w: failed to parse channels response: %w", ErrTransport, err)
	}
	if len(response.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	playlistID := response.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if playlistID == "" {
		return "", fmt.Errorf("%w: no uploads playlist for %s", ErrPlaylistNotFound, channelID)
	}

	if c.playlists != nil {
		c.playlists.Add(channelID, playlistID)
	}
	return playlistID, nil
}

// FetchPlaylistItems reads the first page of a playlist, newest entries
// first as the API returns them for uploads playlists.
func (c *Client) FetchPlaylistItems(ctx context.Context, playlistID string, max int) ([]PlaylistItem, error) {
	if max <= 0 || max > maxPageSize {
		max = maxPageSize
	}

	body, err := c.doRequest(ctx, "playlistItems", url.Values{
		"part":       {"snippet"},
		"playlistId": {playlistID},
		"maxResults": {fmt.Sprint(max)},
	})
	if err != nil {
		return nil, err
	}

	var response playlistItemsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse playlist items response: %w", ErrTransport, err)
	}

	items := make([]PlaylistItem, 0, len(response.Items))
	for _, item := range response.Items {
		publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		channelTitle := item.Snippet.VideoOwnerChannelTitle
		if channelTitle == "" {
			channelTitle = item.Snippet.ChannelTitle
		}

		items = append(items, PlaylistItem{
			VideoID:      item.Snippet.ResourceID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: channelTitle,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			PublishedAt:  publishedAt.UTC(),
		})
	}

	return items, nil
}

// RecentUploads returns up to max of the channel's latest uploads.
func (c *Client) RecentUploads(ctx context.Context, channelID string, max int) ([]PlaylistItem, error) {
	playlistID, err := c.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return c.FetchPlaylistItems(ctx, playlistID, max)
}

func (c *Client) doRequest(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	// Token may run the interactive consent flow, which has its own
	// deadline; the request timeout starts once credentials are in hand.
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	endpoint := fmt.Sprintf("%s/youtube/v3/%s?%s", c.baseURL, resource, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}

	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// API response types (private - implementation detail)

type subscriptionsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			ResourceID struct {
				ChannelID string `json:"channelId"`
			} `json:"resourceId"`
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
			Title                  string `json:"title"`
			Description            string `json:"description"`
			ChannelID              string `json:"channelId"`
			ChannelTitle           string `json:"channelTitle"`
			VideoOwnerChannelTitle string `json:"videoOwnerChannelTitle"`
			PublishedAt            string `json:"publishedAt"`
			Thumbnails             struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}
