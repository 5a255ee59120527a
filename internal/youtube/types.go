// Package youtube provides a client for the YouTube Data API v3.
//
// This package enables ytfeed to:
// - List the authenticated user's subscriptions, page by page
// - Resolve a channel's uploads playlist
// - Read the most recent entries of a playlist
package youtube

import (
	"net/url"
	"time"
)

// Subscription represents a YouTube channel subscription.
type Subscription struct {
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// PlaylistItem is one entry of an uploads playlist.
type PlaylistItem struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	Thumbnail    string    `json:"thumbnail"`
	PublishedAt  time.Time `json:"published_at"`
}

// WatchURL is the canonical watch page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}
