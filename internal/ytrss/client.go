// Package ytrss reads a channel's latest uploads from its public Atom feed.
//
// The feed needs no OAuth token and costs no API quota, but only carries the
// 15 most recent public uploads.
package ytrss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/youtube"
)

const defaultBaseURL = "https://www.youtube.com"

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the host serving /feeds/videos.xml (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// Client fetches channel upload feeds.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new channel feed client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FeedURL is the Atom feed for a channel's uploads.
func (c *Client) FeedURL(channelID string) string {
	return strings.TrimRight(c.baseURL, "/") + "/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
}

// RecentUploads returns up to max of the newest entries in the channel feed.
func (c *Client) RecentUploads(ctx context.Context, channelID string, max int) ([]youtube.PlaylistItem, error) {
	fp := gofeed.NewParser()
	fp.Client = c.httpClient
	fp.UserAgent = "ytfeed"

	feed, err := fp.ParseURLWithContext(c.FeedURL(channelID), ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", youtube.ErrChannelNotFound, channelID)
		}
		return nil, fmt.Errorf("%w: channel feed %s: %w", youtube.ErrTransport, channelID, err)
	}

	entries := feed.Items
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}

	items := make([]youtube.PlaylistItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toPlaylistItem(feed, entry, channelID))
	}
	return items, nil
}

func toPlaylistItem(feed *gofeed.Feed, entry *gofeed.Item, channelID string) youtube.PlaylistItem {
	item := youtube.PlaylistItem{
		VideoID:      extensionValue(entry.Extensions, "yt", "videoId"),
		Title:        entry.Title,
		ChannelID:    channelID,
		ChannelTitle: feed.Title,
	}
	if entry.Author != nil && entry.Author.Name != "" {
		item.ChannelTitle = entry.Author.Name
	}
	if entry.PublishedParsed != nil {
		item.PublishedAt = entry.PublishedParsed.UTC()
	}
	if item.VideoID == "" {
		item.VideoID = strings.TrimPrefix(entry.GUID, "yt:video:")
	}

	// Description and thumbnail live under media:group.
	if groups := entry.Extensions["media"]["group"]; len(groups) > 0 {
		group := groups[0]
		if desc := group.Children["description"]; len(desc) > 0 {
			item.Description = desc[0].Value
		}
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				item.Thumbnail = u
				break
			}
		}
	}
	if item.Description == "" {
		item.Description = entry.Description
	}
	return item
}

func extensionValue(extensions ext.Extensions, ns, name string) string {
	if values := extensions[ns][name]; len(values) > 0 {
		return values[0].Value
	}
	return ""
}
