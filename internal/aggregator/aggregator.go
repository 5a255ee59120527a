package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/youtube"
)

const (
	// DefaultMaxPerChannel is how many uploads are read per channel. It is a
	// hard limit: uploads past it are not fetched even when inside the window.
	DefaultMaxPerChannel = 10

	// MaxDescriptionLength is the description cap in characters.
	MaxDescriptionLength = 200
)

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithClock replaces time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithMaxPerChannel sets how many uploads are read per channel.
func WithMaxPerChannel(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxPerChannel = n
		}
	}
}

// WithConcurrency bounds how many channels are fetched at once. 1 fetches
// channels one after another in subscription order.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-channel failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// Aggregator builds feeds from a subscription source and an uploads source.
type Aggregator struct {
	subscriptions SubscriptionSource
	uploads       UploadsSource
	now           func() time.Time
	maxPerChannel int
	concurrency   int
	logger        *slog.Logger
}

// New creates a new Aggregator instance.
func New(subscriptions SubscriptionSource, uploads UploadsSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		subscriptions: subscriptions,
		uploads:       uploads,
		now:           time.Now,
		maxPerChannel: DefaultMaxPerChannel,
		concurrency:   1,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListSubscriptions returns every subscribed channel in the order the API
// listed them.
func (a *Aggregator) ListSubscriptions(ctx context.Context) ([]Channel, error) {
	subs, err := a.subscriptions.FetchSubscriptions(ctx)
	if err != nil {
		return nil, wrap("error listing subscriptions", err)
	}

	channels := make([]Channel, 0, len(subs))
	for _, sub := range subs {
		channels = append(channels, Channel{
			ID:          sub.ChannelID,
			Title:       sub.ChannelTitle,
			Description: sub.Description,
		})
	}
	return channels, nil
}

// LatestForChannel returns the channel's uploads published within the last
// lookbackHours, newest first. An unknown channel, or one without an uploads
// playlist, yields an empty result.
func (a *Aggregator) LatestForChannel(ctx context.Context, channelID string, lookbackHours float64) ([]Video, error) {
	if channelID == "" {
		return nil, &Error{Kind: KindInvalidArgument, Err: ErrChannelIDRequired}
	}
	videos, err := a.fetchChannel(ctx, channelID, a.cutoff(lookbackHours))
	if err != nil {
		return nil, err
	}
	sortNewestFirst(videos)
	return videos, nil
}

// LatestAcrossChannels merges the recent uploads of every subscription.
// A channel that fails is reported in Feed.Failures and does not abort the
// others; failing to list subscriptions fails the whole call.
func (a *Aggregator) LatestAcrossChannels(ctx context.Context, lookbackHours float64) (Feed, error) {
	channels, err := a.ListSubscriptions(ctx)
	if err != nil {
		return Feed{}, err
	}

	cutoff := a.cutoff(lookbackHours)
	type outcome struct {
		videos []Video
		err    error
	}
	outcomes := make([]outcome, len(channels))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, ch := range channels {
		g.Go(func() error {
			videos, err := a.fetchChannel(ctx, ch.ID, cutoff)
			outcomes[i] = outcome{videos: videos, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Feed{}, &Error{Kind: KindTransport, Op: "error getting latest videos", Err: err}
	}

	feed := Feed{Videos: make([]Video, 0), Failures: make([]ChannelFailure, 0)}
	seen := make(map[string]struct{})
	for i, ch := range channels {
		out := outcomes[i]
		if out.err != nil {
			a.logger.Warn("channel fetch failed",
				slog.String("channel_id", ch.ID),
				slog.String("channel_title", ch.Title),
				slog.String("kind", string(KindOf(out.err))),
				slog.Any("error", out.err))
			feed.Failures = append(feed.Failures, ChannelFailure{
				ChannelID:    ch.ID,
				ChannelTitle: ch.Title,
				Kind:         KindOf(out.err),
				Reason:       out.err.Error(),
			})
			continue
		}
		for _, v := range out.videos {
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			v.ChannelTitle = ch.Title
			feed.Videos = append(feed.Videos, v)
		}
	}

	sortNewestFirst(feed.Videos)
	a.logger.Debug("feed aggregated",
		slog.Int("channels", len(channels)),
		slog.Int("videos", len(feed.Videos)),
		slog.Int("failed", len(feed.Failures)))
	return feed, nil
}

// cutoff accepts fractional hours; the window is kept at nanosecond
// resolution before timestamps are compared.
func (a *Aggregator) cutoff(lookbackHours float64) time.Time {
	return a.now().UTC().Add(-time.Duration(lookbackHours * float64(time.Hour)))
}

func (a *Aggregator) fetchChannel(ctx context.Context, channelID string, cutoff time.Time) ([]Video, error) {
	items, err := a.uploads.RecentUploads(ctx, channelID, a.maxPerChannel)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return []Video{}, nil
		}
		return nil, wrap(fmt.Sprintf("error getting videos for channel %s", channelID), err)
	}

	videos := make([]Video, 0, len(items))
	for _, item := range items {
		published := item.PublishedAt.UTC().Truncate(time.Second)
		if published.Before(cutoff) {
			continue
		}
		videos = append(videos, Video{
			ID:           item.VideoID,
			Title:        item.Title,
			PublishedAt:  published,
			Description:  TruncateDescription(item.Description),
			Thumbnail:    item.Thumbnail,
			URL:          youtube.WatchURL(item.VideoID),
			ChannelID:    channelID,
			ChannelTitle: item.ChannelTitle,
		})
	}
	return videos, nil
}

func sortNewestFirst(videos []Video) {
	slices.SortStableFunc(videos, func(x, y Video) int {
		return y.PublishedAt.Compare(x.PublishedAt)
	})
}

// TruncateDescription caps s at MaxDescriptionLength characters, appending
// "..." only when something was cut.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionLength {
		return s
	}
	return string([]rune(s)[:MaxDescriptionLength]) + "..."
}

// Limit keeps the first n videos. Non-positive n keeps everything.
func Limit(videos []Video, n int) []Video {
	if n <= 0 || len(videos) <= n {
		return videos
	}
	return videos[:n]
}
