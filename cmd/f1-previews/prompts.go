// cmd/f1-previews/prompts.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	promptstore "f1-previews/internal/workers/prompts/prompt-store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPromptsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect and edit the stored prompt templates",
	}

	withApp := func(run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return run(ctx, a, cmd, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every template with its first line",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			all, err := a.prompts.All(ctx)
			if err != nil {
				return err
			}
			printPromptTable(cmd.OutOrStdout(), all)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Print one template",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			text, err := a.prompts.Get(ctx, promptstore.PromptID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}),
	})

	var file string
	set := &cobra.Command{
		Use:   "set ID [TEXT]",
		Short: "Replace one template from TEXT, --file, or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			text, err := promptText(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := a.prompts.Set(ctx, promptstore.PromptID(args[0]), text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			return nil
		}),
	}
	set.Flags().StringVar(&file, "file", "", "read the template from this file (- for stdin)")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore every template to its default",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if err := a.prompts.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "prompts reset to defaults")
			return nil
		}),
	})

	return cmd
}

func promptText(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 2:
		return args[1], nil
	case file == "-" || file == "":
		raw, err := io.ReadAll(stdin)
		return string(raw), err
	default:
		raw, err := os.ReadFile(file)
		return string(raw), err
	}
}

func printPromptTable(w io.Writer, all map[promptstore.PromptID]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Chars", "First line"})
	for _, id := range promptstore.AllPrompts {
		text := all[id]
		first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
		t.AppendRow(table.Row{id, len([]rune(text)), truncate(first, 70)})
	}
	t.Render()
}
