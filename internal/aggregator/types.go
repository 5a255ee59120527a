// Package aggregator turns a user's subscriptions into a time-filtered,
// newest-first feed of recent uploads.
//
// This package enables ytfeed to:
// - List subscribed channels
// - Read one channel's uploads within a lookback window
// - Merge uploads across every subscription, isolating per-channel failures
package aggregator

import "time"

// Channel is a subscription snapshot taken at listing time.
type Channel struct {
	ID          string `json:"channel_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Video is one upload inside a lookback window.
type Video struct {
	ID           string    `json:"video_id"`
	Title        string    `json:"title"`
	PublishedAt  time.Time `json:"published_at"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	URL          string    `json:"url"`
	ChannelID    string    `json:"channel_id,omitempty"`
	ChannelTitle string    `json:"channel_title,omitempty"`
}

// ChannelFailure records a channel whose uploads could not be read.
type ChannelFailure struct {
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	Kind         Kind   `json:"kind"`
	Reason       string `json:"reason"`
}

// Feed is the merged result across all subscriptions. Videos holds the
// successful channels only.
type Feed struct {
	Videos   []Video          `json:"videos"`
	Failures []ChannelFailure `json:"failed_channels"`
}
