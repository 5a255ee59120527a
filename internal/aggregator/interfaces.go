package aggregator

import (
	"context"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/youtube"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_sources.go -package=mocks

// SubscriptionSource lists the authenticated user's subscriptions.
type SubscriptionSource interface {
	FetchSubscriptions(ctx context.Context) ([]youtube.Subscription, error)
}

// UploadsSource reads a channel's newest uploads, newest first.
type UploadsSource interface {
	RecentUploads(ctx context.Context, channelID string, max int) ([]youtube.PlaylistItem, error)
}
