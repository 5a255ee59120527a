// Package display renders feeds as human-readable digests.
package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/aggregator"
)

const (
	timestampLayout = "2006-01-02 15:04 UTC"

	// channelDescriptionLength caps descriptions in the channel digest.
	channelDescriptionLength = 100
)

var rule = strings.Repeat("-", 50)

// DigestFormatter renders feeds, channel lists and failures as text.
type DigestFormatter struct {
	now func() time.Time
}

// NewDigestFormatter creates a new digest formatter.
func NewDigestFormatter() *DigestFormatter {
	return &DigestFormatter{now: time.Now}
}

// WithClock returns a copy of f that reads the time from now.
func (f *DigestFormatter) WithClock(now func() time.Time) *DigestFormatter {
	return &DigestFormatter{now: now}
}

// FormatLatest renders the cross-channel digest. Failed channels are
// listed after the videos.
func (f *DigestFormatter) FormatLatest(videos []aggregator.Video, failures []aggregator.ChannelFailure, hours float64) string {
	var b strings.Builder
	if len(videos) == 0 {
		fmt.Fprintf(&b, "No new videos found in the last %s hours from your subscribed channels.\n", FormatHours(hours))
	} else {
		fmt.Fprintf(&b, "Found %d new videos in the last %s hours:\n\n", len(videos), FormatHours(hours))
		for _, v := range videos {
			fmt.Fprintf(&b, "📺 **%s**\n", v.ChannelTitle)
			f.writeVideo(&b, v)
		}
	}
	f.writeFailures(&b, failures)
	return b.String()
}

// FormatChannelVideos renders the single-channel digest.
func (f *DigestFormatter) FormatChannelVideos(channelID string, videos []aggregator.Video, hours float64) string {
	if len(videos) == 0 {
		return fmt.Sprintf("No new videos found in the last %s hours for channel %s.\n", FormatHours(hours), channelID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d new videos in the last %s hours:\n\n", len(videos), FormatHours(hours))
	for _, v := range videos {
		f.writeVideo(&b, v)
	}
	return b.String()
}

// FormatChannels renders the subscription list.
func (f *DigestFormatter) FormatChannels(channels []aggregator.Channel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are subscribed to %d channels:\n\n", len(channels))
	for _, ch := range channels {
		fmt.Fprintf(&b, "📺 **%s**\n", ch.Title)
		fmt.Fprintf(&b, "🆔 %s\n", ch.ID)
		if ch.Description != "" {
			fmt.Fprintf(&b, "📝 %s\n", f.TruncateText(ch.Description, channelDescriptionLength))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHours prints a lookback window without a trailing ".0": 24, 0.5.
func FormatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

// FormatError renders a failure as "<prefix>: <cause>".
func (f *DigestFormatter) FormatError(prefix string, err error) string {
	return fmt.Sprintf("%s: %v", prefix, err)
}

func (f *DigestFormatter) writeVideo(b *strings.Builder, v aggregator.Video) {
	fmt.Fprintf(b, "🎬 %s\n", v.Title)
	fmt.Fprintf(b, "🕒 %s (%s)\n", v.PublishedAt.UTC().Format(timestampLayout), f.FormatTimestamp(v.PublishedAt))
	fmt.Fprintf(b, "🔗 %s\n", v.URL)
	if v.Description != "" {
		fmt.Fprintf(b, "📝 %s\n", v.Description)
	}
	b.WriteString("\n" + rule + "\n\n")
}

func (f *DigestFormatter) writeFailures(b *strings.Builder, failures []aggregator.ChannelFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(b, "\n⚠️ Could not check %s:\n", pluralCount(len(failures), "channel"))
	for _, fail := range failures {
		fmt.Fprintf(b, "- %s (%s): %s\n", fail.ChannelTitle, fail.ChannelID, fail.Reason)
	}
}

// FormatTimestamp formats a timestamp as relative time.
func (f *DigestFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	return pluralCount(n, unit) + " ago"
}

func pluralCount(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TruncateText keeps the first maxLen characters of text, adding "..." if
// anything was cut.
func (f *DigestFormatter) TruncateText(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	return string([]rune(text)[:maxLen]) + "..."
}
