package display

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/aggregator"
)

const tableTitleWidth = 60

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}

// RenderChannelTable writes subscriptions as an aligned table.
func (f *DigestFormatter) RenderChannelTable(w io.Writer, channels []aggregator.Channel) error {
	rows := make([][]string, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, []string{ch.ID, f.TruncateText(ch.Title, tableTitleWidth)})
	}

	table := newTable(w)
	table.Header([]string{"Channel ID", "Title"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// RenderVideoTable writes videos as an aligned table, newest first as given.
func (f *DigestFormatter) RenderVideoTable(w io.Writer, videos []aggregator.Video) error {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			f.FormatTimestamp(v.PublishedAt),
			f.TruncateText(v.ChannelTitle, 24),
			f.TruncateText(v.Title, tableTitleWidth),
			v.URL,
		})
	}

	table := newTable(w)
	table.Header([]string{"Published", "Channel", "Title", "URL"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
