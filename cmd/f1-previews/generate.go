// cmd/f1-previews/generate.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "f1-previews/internal/common/errors"
	generatepreviews "f1-previews/internal/workers/generation/generate-previews"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	only     string
	driver   string
	jsonPath string
	circuit  string
	date     string
	season   string
	model    string
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run a generation pass and save the result",
		Long: "Runs the full preview pipeline, or with --only a single part of it against\n" +
			"the stored aggregate. Circuit and date default to the next race on the calendar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.only == generatepreviews.ModeDriver && opts.driver == "" {
				return apperrors.NewInvalidInputError("--only=driver needs --driver")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			return runGenerate(ctx, a, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.only, "only", "", "regenerate one part: drivers|driver|top5|underdogs|prediction|standings")
	flags.StringVar(&opts.driver, "driver", "", "driver name for --only=driver")
	flags.StringVar(&opts.jsonPath, "json", "", "also write the resulting aggregate to this file")
	flags.StringVar(&opts.circuit, "circuit", "", "circuit name (full runs only)")
	flags.StringVar(&opts.date, "date", "", "race date YYYY-MM-DD (full runs only)")
	flags.StringVar(&opts.season, "season", "", "season year (full runs only)")
	flags.StringVar(&opts.model, "model", "", "override the saved model")
	return cmd
}

func runGenerate(ctx context.Context, a *app, opts generateOptions, out, errOut io.Writer) error {
	settings, err := a.prompts.LoadSettings(ctx)
	if err != nil {
		return err
	}

	circuit, date := opts.circuit, opts.date
	if circuit == "" {
		circuit = a.cfg.Generation.Circuit
	}
	if date == "" {
		date = a.cfg.Generation.Date
	}
	season := opts.season
	if season == "" {
		season = a.cfg.Generation.Season
	}
	model := settings.Model
	if opts.model != "" {
		model = opts.model
	}

	req := generatepreviews.Request{
		APIKey:      settings.APIKey,
		Model:       model,
		Circuit:     circuit,
		Date:        date,
		Season:      season,
		Temperature: settings.Temperature,
	}

	progress := func(p generatepreviews.Progress) {
		fmt.Fprintf(errOut, "[%d/%d] %s\n", p.Completed, p.Total, p.Message)
	}

	state := a.loadState(ctx)
	data, report, err := a.generator.Run(ctx, opts.only, req, state, opts.driver, progress)
	if report != nil {
		printReport(out, report)
	}
	if err != nil {
		return err
	}

	if opts.jsonPath != "" {
		if err := a.previews.WriteSnapshot(opts.jsonPath, data); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", opts.jsonPath)
	}
	return nil
}

func printReport(w io.Writer, report *generatepreviews.Report) {
	fmt.Fprintf(w, "\nRun %s (%s) %s %s %s: %s\n",
		report.RunID, report.Mode, report.Circuit, report.Date, report.Season, report.Status())

	if len(report.Drivers) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Driver", "Status", "Detail", "Time"})
		for _, o := range report.Drivers {
			detail := o.DegradedReason
			if o.Error != "" {
				detail = o.Error
			}
			t.AppendRow(table.Row{o.Driver, o.Status, truncate(detail, 60), (time.Duration(o.DurationMs) * time.Millisecond).Round(100 * time.Millisecond)})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d ok", report.Succeeded()), fmt.Sprintf("%d failed", len(report.Failed())), ""})
		t.Render()
	}

	for _, se := range report.StepErrors {
		fmt.Fprintf(w, "step %s failed: %s\n", se.Step, se.Error)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
