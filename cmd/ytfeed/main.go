// Package main provides the ytfeed CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/aggregator"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/display"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/tools"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/pkg/browser"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/pkg/oauth"
)

var version = "dev"

func main() {
	info, _ := debug.ReadBuildInfo()
	version = resolveVersion(version, info)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(v string, info *debug.BuildInfo) string {
	if v != "dev" {
		return v
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ytfeed",
		Short: "Latest videos from your YouTube subscriptions",
		Long: "ytfeed lists the channels you are subscribed to on YouTube and the videos they uploaded recently.\n" +
			"Run 'ytfeed serve' to expose the same operations as MCP tools.",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.SetVersionTemplate("ytfeed version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $YTFEED_CONFIG_DIR/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newAuthCmd(opts))
	rootCmd.AddCommand(newChannelsCmd(opts))
	rootCmd.AddCommand(newLatestCmd(opts))
	rootCmd.AddCommand(newVideosCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long:  "Serve get_latest_videos, get_subscribed_channels and get_channel_videos over stdio, or over streamable HTTP with --http.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd, opts, nil)
			if err != nil {
				return err
			}

			server := tools.NewServer(a.feed, version,
				tools.WithDefaults(a.cfg.Feed.LookbackHours, a.cfg.Feed.Limit),
				tools.WithLogger(a.logger))

			if httpAddr != "" {
				return server.ServeHTTP(ctx, httpAddr)
			}
			return server.ServeStdio(ctx)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")

	return cmd
}

func newAuthCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize ytfeed to read your YouTube subscriptions",
		Long:  "Run the OAuth flow in the browser and cache the token for later runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("port") {
				overrides["auth.callback_port"] = port
			}
			a, err := newApp(cmd, opts, overrides)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			authorizer := oauth.BrowserAuthorizer(a.cfg.Auth.CallbackPort, browser.Open, func(authURL string) {
				fmt.Fprintf(out, "Opening browser for authorization...\n")
				fmt.Fprintf(out, "If it does not open, please visit:\n%s\n", authURL)
				fmt.Fprintf(out, "Waiting for authorization...\n")
			})
			auth := oauth.NewAuthenticator(a.cfg.Auth.ClientSecrets,
				oauth.NewTokenStorage(a.cfg.Auth.TokenFile),
				oauth.WithAuthorizer(authorizer),
				oauth.WithLogger(a.logger))

			if _, err := auth.Authorize(cmd.Context()); err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprintln(out, "Successfully authenticated!")
			fmt.Fprintf(out, "Token saved to: %s\n", a.cfg.Auth.TokenFile)
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port for the OAuth callback server (default from config, 0 picks a free port)")

	return cmd
}

func newChannelsCmd(opts *rootOptions) *cobra.Command {
	var digest bool

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List subscribed channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, nil)
			if err != nil {
				return err
			}

			channels, err := a.feed.ListSubscriptions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			formatter := display.NewDigestFormatter()
			if digest {
				fmt.Fprint(out, formatter.FormatChannels(channels))
				return nil
			}
			heading(out, "%d subscribed channels", len(channels))
			return formatter.RenderChannelTable(out, channels)
		},
	}

	cmd.Flags().BoolVar(&digest, "digest", false, "print the same text the MCP tool returns")

	return cmd
}

func newLatestCmd(opts *rootOptions) *cobra.Command {
	var (
		hours  float64
		limit  int
		digest bool
	)

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show recent uploads across all subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("hours") {
				overrides["feed.lookback_hours"] = hours
			}
			if cmd.Flags().Changed("limit") {
				overrides["feed.limit"] = limit
			}
			a, err := newApp(cmd, opts, overrides)
			if err != nil {
				return err
			}

			lookback := a.cfg.Feed.LookbackHours
			feed, err := a.feed.LatestAcrossChannels(cmd.Context(), lookback)
			if err != nil {
				return err
			}
			videos := aggregator.Limit(feed.Videos, a.cfg.Feed.Limit)

			out := cmd.OutOrStdout()
			formatter := display.NewDigestFormatter()
			if digest {
				fmt.Fprint(out, formatter.FormatLatest(videos, feed.Failures, lookback))
				return nil
			}

			heading(out, "%d new videos in the last %s hours", len(videos), display.FormatHours(lookback))
			if err := formatter.RenderVideoTable(out, videos); err != nil {
				return err
			}
			warn := color.New(color.FgYellow)
			for _, f := range feed.Failures {
				warn.Fprintf(cmd.ErrOrStderr(), "could not check %s (%s): %s\n", f.ChannelTitle, f.ChannelID, f.Reason)
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&hours, "hours", "H", 24, "hours to look back (fractions allowed)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum number of videos (0 for no limit)")
	cmd.Flags().BoolVar(&digest, "digest", false, "print the same text the MCP tool returns")

	return cmd
}

func newVideosCmd(opts *rootOptions) *cobra.Command {
	var (
		hours  float64
		digest bool
	)

	cmd := &cobra.Command{
		Use:   "videos <channel-id>",
		Short: "Show recent uploads of one channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("hours") {
				overrides["feed.lookback_hours"] = hours
			}
			a, err := newApp(cmd, opts, overrides)
			if err != nil {
				return err
			}

			channelID := args[0]
			lookback := a.cfg.Feed.LookbackHours
			videos, err := a.feed.LatestForChannel(cmd.Context(), channelID, lookback)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			formatter := display.NewDigestFormatter()
			if digest {
				fmt.Fprint(out, formatter.FormatChannelVideos(channelID, videos, lookback))
				return nil
			}
			heading(out, "%d new videos in the last %s hours for %s", len(videos), display.FormatHours(lookback), channelID)
			return formatter.RenderVideoTable(out, videos)
		},
	}

	cmd.Flags().Float64VarP(&hours, "hours", "H", 24, "hours to look back (fractions allowed)")
	cmd.Flags().BoolVar(&digest, "digest", false, "print the same text the MCP tool returns")

	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Print where ytfeed reads its configuration, credentials and token from.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, nil)
			if err != nil {
				return err
			}

			file := a.cfg.File
			if file == "" {
				file = "(none)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", a.cfg.ConfigDir)
			fmt.Fprintf(out, "Config file: %s\n", file)
			fmt.Fprintf(out, "Client secrets: %s\n", a.cfg.Auth.ClientSecrets)
			fmt.Fprintf(out, "Token file: %s\n", a.cfg.Auth.TokenFile)
			fmt.Fprintf(out, "Uploads source: %s\n", a.cfg.Uploads.Source)
			fmt.Fprintf(out, "Lookback hours: %s\n", display.FormatHours(a.cfg.Feed.LookbackHours))
			fmt.Fprintf(out, "Concurrency: %d\n", a.cfg.Feed.Concurrency)
			return nil
		},
	}
}

func heading(w io.Writer, format string, args ...any) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, format+"\n\n", args...)
}
