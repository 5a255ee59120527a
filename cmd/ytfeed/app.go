package main

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/aggregator"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/config"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/logging"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/youtube"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/ytrss"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/pkg/browser"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/pkg/oauth"
)

// app holds the components shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	feed   *aggregator.Aggregator
}

// newApp loads configuration and wires the credential, the YouTube client
// and the aggregator. Logs go to stderr so stdout stays free for the MCP
// stdio transport.
func newApp(cmd *cobra.Command, opts *rootOptions, overrides map[string]any) (*app, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if opts.logLevel != "" {
		overrides["log.level"] = opts.logLevel
	}
	if opts.logFormat != "" {
		overrides["log.format"] = opts.logFormat
	}

	cfg, err := config.Load(opts.cfgFile, overrides)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	authOpts := []oauth.AuthenticatorOption{oauth.WithLogger(logger)}
	if cfg.Auth.Interactive {
		stderr := cmd.ErrOrStderr()
		authOpts = append(authOpts, oauth.WithAuthorizer(oauth.BrowserAuthorizer(cfg.Auth.CallbackPort, browser.Open,
			func(authURL string) {
				logger.Info("authorization required, opening browser", slog.String("url", authURL))
				_, _ = stderr.Write([]byte("Could not find a cached token. Please visit:\n" + authURL + "\n"))
			})))
	}
	auth := oauth.NewAuthenticator(cfg.Auth.ClientSecrets, oauth.NewTokenStorage(cfg.Auth.TokenFile), authOpts...)

	client := youtube.NewClient(auth,
		youtube.WithBaseURL(cfg.API.BaseURL),
		youtube.WithTimeout(cfg.API.Timeout),
		youtube.WithRateLimit(cfg.API.RequestsPerSecond),
		youtube.WithPlaylistCache(cfg.API.PlaylistCacheSize))

	var uploads aggregator.UploadsSource = client
	if cfg.Uploads.Source == config.SourceRSS {
		uploads = ytrss.NewClient(
			ytrss.WithBaseURL(cfg.Uploads.RSSBaseURL),
			ytrss.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))
	}

	logger.Debug("configuration loaded",
		slog.String("config_file", cfg.File),
		slog.String("uploads_source", cfg.Uploads.Source),
		slog.Int("concurrency", cfg.Feed.Concurrency))

	feed := aggregator.New(client, uploads,
		aggregator.WithMaxPerChannel(cfg.Feed.MaxPerChannel),
		aggregator.WithConcurrency(cfg.Feed.Concurrency),
		aggregator.WithLogger(logger))

	return &app{cfg: cfg, logger: logger, feed: feed}, nil
}
