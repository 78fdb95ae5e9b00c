package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/osa030/groove/internal/app/prefetch"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
	"github.com/osa030/groove/internal/infra/config"
	"github.com/osa030/groove/internal/infra/media"
	"github.com/osa030/groove/internal/infra/probe"
)

// runTracks prints the collected playlist as a table.
func runTracks(cfg *config.Config, probeDurations bool) error {
	ctx := context.Background()

	tracks, err := collectTracks(ctx, cfg)
	if err != nil {
		return err
	}
	pl, err := playlist.New(cfg.Player.Name, tracks)
	if err != nil {
		return err
	}

	if probeDurations {
		p := prefetch.New(probe.NewProber(media.NewOpener(nil)), pl)
		p.Start(ctx)
		p.Wait()
	}

	renderTracks(os.Stdout, pl)
	return nil
}

func renderTracks(out *os.File, pl *playlist.Playlist) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(pl.Name())

	t.AppendHeader(table.Row{"#", "Title", "Artist", "Duration", "Source"})
	for _, e := range pl.Entries() {
		dur := track.FormatTime(e.Track.Duration)
		if e.Track.Duration == 0 {
			dur = text.FgHiBlack.Sprint("--:--")
		}
		t.AppendRow(table.Row{e.Index + 1, e.Track.Title, e.Track.Artist, dur, e.Track.Source})
	}
	t.AppendFooter(table.Row{"", "", "Total", track.FormatTime(pl.TotalDuration()), pl.Len()})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 30},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 50},
	})
	t.Render()
}
