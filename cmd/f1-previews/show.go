// cmd/f1-previews/show.go
package main

import (
	"context"
	"fmt"
	"io"

	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newShowCmd(configPath *string) *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored previews as tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			state := a.loadState(ctx)
			out := cmd.OutOrStdout()
			if driver != "" {
				preview, ok := state.Preview(driver)
				if !ok {
					return apperrors.NewNoPreviewError(driver)
				}
				printDriverPreview(out, driver, preview)
				return nil
			}
			printAggregate(out, state, a.cfg.Generation.Season)
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "print one driver's full preview")
	return cmd
}

func printAggregate(w io.Writer, state models.GeneratedData, fallbackSeason string) {
	meta := state.Metadata
	if meta.GeneratedAt == nil {
		fmt.Fprintln(w, "No previews generated yet. Run `f1-previews generate`.")
		return
	}
	season := meta.Season
	if season == "" {
		season = fallbackSeason
	}
	fmt.Fprintf(w, "%s %s (%s), generated %s\n\n", meta.Circuit, season, meta.Date, *meta.GeneratedAt)

	if state.RaceContext != "" {
		fmt.Fprintf(w, "%s\n\n", state.RaceContext)
	}

	drivers := table.NewWriter()
	drivers.SetOutputMirror(w)
	drivers.SetStyle(table.StyleRounded)
	drivers.SetTitle("Drivers")
	drivers.AppendHeader(table.Row{"#", "Driver", "Team", "Stakes", "TL;DR"})
	for _, d := range models.Roster2025 {
		p, ok := state.Drivers[d.Name]
		if !ok {
			drivers.AppendRow(table.Row{d.Number, d.Name, d.Team, "", "(no preview)"})
			continue
		}
		tldr := p.TLDR
		if p.Degraded {
			tldr = "[" + p.DegradedReason + "] " + tldr
		}
		drivers.AppendRow(table.Row{d.Number, d.Name, d.Team, p.StakesLevel, truncate(tldr, 80)})
	}
	drivers.Render()

	if len(state.Top5) > 0 {
		top := table.NewWriter()
		top.SetOutputMirror(w)
		top.SetStyle(table.StyleRounded)
		top.SetTitle("Top 5 to watch")
		top.AppendHeader(table.Row{"Rank", "Driver", "Stakes", "Why"})
		for _, e := range state.Top5 {
			top.AppendRow(table.Row{e.Rank, e.Driver, e.Stakes, truncate(e.Reason, 80)})
		}
		top.Render()
	}

	if len(state.Underdogs) > 0 {
		under := table.NewWriter()
		under.SetOutputMirror(w)
		under.SetStyle(table.StyleRounded)
		under.SetTitle("Underdog stories")
		under.AppendHeader(table.Row{"Driver", "Title", "Surprise"})
		for _, e := range state.Underdogs {
			under.AppendRow(table.Row{e.Driver, truncate(e.Title, 60), e.SurpriseFactor})
		}
		under.Render()
	}

	if state.Prediction != "" {
		fmt.Fprintf(w, "\nPrediction\n\n%s\n", state.Prediction)
	}
	if state.Standings != nil {
		fmt.Fprintf(w, "\nStandings progression through round %d (%d drivers)\n",
			state.Standings.LatestRound, len(state.Standings.StandingsData))
	}
}

func printDriverPreview(w io.Writer, name string, p models.DriverPreview) {
	fmt.Fprintf(w, "%s\n\n%s\n\n%s\n", name, p.TLDR, p.Full)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	for _, row := range []struct{ label, value string }{
		{"Perfect quali", p.PerfectQuali},
		{"Perfect race", p.PerfectRace},
		{"Good quali", p.GoodQuali},
		{"Good race", p.GoodRace},
		{"Stakes", string(p.StakesLevel)},
		{"Watch for", p.WatchFor},
	} {
		if row.value != "" {
			t.AppendRow(table.Row{row.label, row.value})
		}
	}
	for _, s := range p.KeyStrengths {
		t.AppendRow(table.Row{"Strength", s})
	}
	if p.Degraded {
		t.AppendRow(table.Row{"Degraded", p.DegradedReason})
	}
	t.Render()
}
