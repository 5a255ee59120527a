// Package tools exposes the feed operations as MCP tools over stdio or
// streamable HTTP.
package tools

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/aggregator"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/display"
)

const (
	ToolLatestVideos       = "get_latest_videos"
	ToolSubscribedChannels = "get_subscribed_channels"
	ToolChannelVideos      = "get_channel_videos"

	defaultLookbackHours = 24
	defaultLimit         = 50
)

// Feed is what the tools read from; *aggregator.Aggregator implements it.
type Feed interface {
	ListSubscriptions(ctx context.Context) ([]aggregator.Channel, error)
	LatestForChannel(ctx context.Context, channelID string, lookbackHours float64) ([]aggregator.Video, error)
	LatestAcrossChannels(ctx context.Context, lookbackHours float64) (aggregator.Feed, error)
}

// Option configures the Server.
type Option func(*Server)

// WithDefaults overrides the lookback window and limit used when a call
// leaves them out.
func WithDefaults(lookbackHours float64, limit int) Option {
	return func(s *Server) {
		if lookbackHours > 0 {
			s.lookbackHours = lookbackHours
		}
		s.limit = limit
	}
}

// WithLogger sets the logger used for tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFormatter replaces the digest formatter (useful for a fixed clock in tests).
func WithFormatter(f *display.DigestFormatter) Option {
	return func(s *Server) {
		s.formatter = f
	}
}

// Server wires the feed operations into an MCP server.
type Server struct {
	feed          Feed
	formatter     *display.DigestFormatter
	logger        *slog.Logger
	lookbackHours float64
	limit         int
	mcp           *mcp.Server
}

// NewServer registers the three tools on a fresh MCP server.
func NewServer(feed Feed, version string, opts ...Option) *Server {
	s := &Server{
		feed:          feed,
		formatter:     display.NewDigestFormatter(),
		logger:        slog.Default(),
		lookbackHours: defaultLookbackHours,
		limit:         defaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "ytfeed",
		Version: version,
	}, nil)
	s.register()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// ServeStdio serves one client over stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over HTTP", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) register() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolLatestVideos,
		Description: "Get the latest videos from all subscribed YouTube channels, newest first. Channels that could not be checked are listed separately.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.latestVideos)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSubscribedChannels,
		Description: "Get the list of YouTube channels the authenticated user is subscribed to.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.subscribedChannels)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolChannelVideos,
		Description: "Get recent videos from one YouTube channel. At most 10 uploads per channel are examined.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.channelVideos)
}

func (s *Server) hours(requested float64) float64 {
	if requested <= 0 {
		return s.lookbackHours
	}
	return requested
}

func (s *Server) latestVideos(ctx context.Context, _ *mcp.CallToolRequest, in LatestVideosInput) (*mcp.CallToolResult, *LatestVideosOutput, error) {
	start := time.Now()
	hours := s.hours(in.HoursAgo)
	limit := s.limit
	if in.Limit != nil {
		limit = int(*in.Limit)
	}

	out := &LatestVideosOutput{
		HoursChecked:   hours,
		Videos:         []VideoOutput{},
		FailedChannels: []FailedChannelOutput{},
	}

	feed, err := s.feed.LatestAcrossChannels(ctx, hours)
	if err != nil {
		s.logFailure(ToolLatestVideos, err, start)
		out.Error = toolError(err)
		return s.failure("Error getting latest YouTube videos", err), out, nil
	}

	videos := aggregator.Limit(feed.Videos, limit)
	out.TotalVideos = len(videos)
	out.Videos = toVideoOutputs(videos)
	out.FailedChannels = toFailedChannelOutputs(feed.Failures)

	s.logger.Info("tool call completed",
		slog.String("tool", ToolLatestVideos),
		slog.Float64("hours", hours),
		slog.Int("videos", len(videos)),
		slog.Int("failed_channels", len(feed.Failures)),
		slog.Duration("duration", time.Since(start)))
	return text(s.formatter.FormatLatest(videos, feed.Failures, hours)), out, nil
}

func (s *Server) subscribedChannels(ctx context.Context, _ *mcp.CallToolRequest, _ SubscribedChannelsInput) (*mcp.CallToolResult, *SubscribedChannelsOutput, error) {
	start := time.Now()
	out := &SubscribedChannelsOutput{Channels: []ChannelOutput{}}

	channels, err := s.feed.ListSubscriptions(ctx)
	if err != nil {
		s.logFailure(ToolSubscribedChannels, err, start)
		out.Error = toolError(err)
		return s.failure("Error getting subscribed channels", err), out, nil
	}

	out.TotalChannels = len(channels)
	out.Channels = toChannelOutputs(channels)

	s.logger.Info("tool call completed",
		slog.String("tool", ToolSubscribedChannels),
		slog.Int("channels", len(channels)),
		slog.Duration("duration", time.Since(start)))
	return text(s.formatter.FormatChannels(channels)), out, nil
}

func (s *Server) channelVideos(ctx context.Context, _ *mcp.CallToolRequest, in ChannelVideosInput) (*mcp.CallToolResult, *ChannelVideosOutput, error) {
	start := time.Now()
	hours := s.hours(in.HoursAgo)
	out := &ChannelVideosOutput{
		ChannelID:    in.ChannelID,
		HoursChecked: hours,
		Videos:       []VideoOutput{},
	}

	if in.ChannelID == "" {
		err := &aggregator.Error{Kind: aggregator.KindInvalidArgument, Err: aggregator.ErrChannelIDRequired}
		out.Error = toolError(err)
		return s.failure("Error", err), out, nil
	}

	videos, err := s.feed.LatestForChannel(ctx, in.ChannelID, hours)
	if err != nil {
		s.logFailure(ToolChannelVideos, err, start)
		out.Error = toolError(err)
		return s.failure("Error getting channel videos", err), out, nil
	}

	out.TotalVideos = len(videos)
	out.Videos = toVideoOutputs(videos)

	s.logger.Info("tool call completed",
		slog.String("tool", ToolChannelVideos),
		slog.String("channel_id", in.ChannelID),
		slog.Float64("hours", hours),
		slog.Int("videos", len(videos)),
		slog.Duration("duration", time.Since(start)))
	return text(s.formatter.FormatChannelVideos(in.ChannelID, videos, hours)), out, nil
}

func (s *Server) failure(prefix string, err error) *mcp.CallToolResult {
	res := text(s.formatter.FormatError(prefix, err))
	res.IsError = true
	return res
}

func (s *Server) logFailure(tool string, err error, start time.Time) {
	s.logger.Error("tool call failed",
		slog.String("tool", tool),
		slog.String("kind", string(aggregator.KindOf(err))),
		slog.Any("error", err),
		slog.Duration("duration", time.Since(start)))
}

func text(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s}},
	}
}

