package tools

import (
	"time"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/aggregator"
)

// LatestVideosInput is the input for get_latest_videos.
type LatestVideosInput struct {
	HoursAgo float64  `json:"hours_ago,omitempty" jsonschema:"Number of hours to look back for new videos, fractions allowed (default 24)"`
	Limit    *float64 `json:"limit,omitempty" jsonschema:"Maximum number of videos to return (default 50, 0 or less for no limit)"`
}

// SubscribedChannelsInput is the (empty) input for get_subscribed_channels.
type SubscribedChannelsInput struct{}

// ChannelVideosInput is the input for get_channel_videos.
type ChannelVideosInput struct {
	ChannelID string `json:"channel_id,omitempty" jsonschema:"YouTube channel ID, e.g. UC_x5XG1OV2P6uZZ5FSM9Ttw (required)"`
	HoursAgo  float64 `json:"hours_ago,omitempty" jsonschema:"Number of hours to look back for new videos, fractions allowed (default 24)"`
}

// VideoOutput is one video in a tool result.
type VideoOutput struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"published_at"`
	Thumbnail    string `json:"thumbnail"`
	URL          string `json:"url"`
	ChannelID    string `json:"channel_id,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
}

// ChannelOutput is one subscription in a tool result.
type ChannelOutput struct {
	ChannelID   string `json:"channel_id"`
	Title       string `json:"channel_title"`
	Description string `json:"description"`
}

// FailedChannelOutput names a channel that could not be checked.
type FailedChannelOutput struct {
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	Kind         string `json:"kind"`
	Reason       string `json:"reason"`
}

// ToolError is the typed failure carried next to the prose message.
type ToolError struct {
	Kind    string `json:"kind" jsonschema:"One of authentication, transport, not_found, invalid_argument"`
	Message string `json:"message"`
}

// LatestVideosOutput is the structured result of get_latest_videos.
type LatestVideosOutput struct {
	TotalVideos    int                   `json:"total_videos"`
	HoursChecked   float64               `json:"hours_checked"`
	Videos         []VideoOutput         `json:"videos"`
	FailedChannels []FailedChannelOutput `json:"failed_channels"`
	Error          *ToolError            `json:"error,omitempty"`
}

// SubscribedChannelsOutput is the structured result of get_subscribed_channels.
type SubscribedChannelsOutput struct {
	TotalChannels int             `json:"total_channels"`
	Channels      []ChannelOutput `json:"channels"`
	Error         *ToolError      `json:"error,omitempty"`
}

// ChannelVideosOutput is the structured result of get_channel_videos.
type ChannelVideosOutput struct {
	ChannelID    string        `json:"channel_id"`
	TotalVideos  int           `json:"total_videos"`
	HoursChecked float64       `json:"hours_checked"`
	Videos       []VideoOutput `json:"videos"`
	Error        *ToolError    `json:"error,omitempty"`
}

func toVideoOutputs(videos []aggregator.Video) []VideoOutput {
	out := make([]VideoOutput, 0, len(videos))
	for _, v := range videos {
		out = append(out, VideoOutput{
			VideoID:      v.ID,
			Title:        v.Title,
			Description:  v.Description,
			PublishedAt:  v.PublishedAt.UTC().Format(time.RFC3339),
			Thumbnail:    v.Thumbnail,
			URL:          v.URL,
			ChannelID:    v.ChannelID,
			ChannelTitle: v.ChannelTitle,
		})
	}
	return out
}

func toChannelOutputs(channels []aggregator.Channel) []ChannelOutput {
	out := make([]ChannelOutput, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelOutput{ChannelID: ch.ID, Title: ch.Title, Description: ch.Description})
	}
	return out
}

func toFailedChannelOutputs(failures []aggregator.ChannelFailure) []FailedChannelOutput {
	out := make([]FailedChannelOutput, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailedChannelOutput{
			ChannelID:    f.ChannelID,
			ChannelTitle: f.ChannelTitle,
			Kind:         string(f.Kind),
			Reason:       f.Reason,
		})
	}
	return out
}

func toolError(err error) *ToolError {
	return &ToolError{Kind: string(aggregator.KindOf(err)), Message: err.Error()}
}
