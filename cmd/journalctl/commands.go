package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"clarify/internal/app"
	"clarify/internal/journal"
	"clarify/internal/service"
)

const timeLayout = "2006-01-02 15:04"

func newListCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				list := a.Journal.List(ctx)
				if list.Recovered {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: the entries table was unreadable and has been treated as empty")
				}
				if len(list.Entries) == 0 {
					fmt.Fprintln(out, "No entries.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUPDATED\tVERSION\tTITLE")
				for _, e := range list.Entries {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.ID, e.UpdatedAt.Local().Format(timeLayout), e.Version, displayTitle(e))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Total: %d entries\n", len(list.Entries))
				return nil
			})
		},
	}
}

func newShowCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Print an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				e, err := a.Journal.Get(ctx, args[0])
				if err != nil {
					if errors.Is(err, service.ErrNotFound) {
						return fmt.Errorf("entry %s not found", args[0])
					}
					return err
				}

				fmt.Fprintf(out, "# %s\n", displayTitle(e))
				fmt.Fprintf(out, "id: %s  version: %d\n", e.ID, e.Version)
				fmt.Fprintf(out, "created: %s  updated: %s\n\n", e.CreatedAt.Local().Format(timeLayout), e.UpdatedAt.Local().Format(timeLayout))
				fmt.Fprintln(out, e.Content)
				if e.KeyQuestion != "" {
					fmt.Fprintf(out, "\nKey question: %s\n", e.KeyQuestion)
				}
				printList(out, "Assumptions", e.Assumptions)
				printList(out, "Uncertainties", e.Uncertainties)
				return nil
			})
		},
	}
}

func newHistoryCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "history <entry-id>",
		Short: "List prior versions of an entry, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				history := a.Journal.History(ctx, args[0])
				if history.Recovered {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: the history table was unreadable and has been treated as empty")
				}
				if len(history.Records) == 0 {
					fmt.Fprintln(out, "No history.")
					return nil
				}
				for _, r := range history.Records {
					fmt.Fprintf(out, "v%d  %s\n", r.Version, r.SavedAt.Local().Format(timeLayout))
					fmt.Fprintf(out, "    %s\n", preview(r.Content, 72))
				}
				return nil
			})
		},
	}
}

func newExportCmd(open openFunc) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the journal snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				data, err := a.Journal.Export(ctx)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err := out.Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported journal to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the journal with a JSON snapshot",
		Long: `Replace the journal with a JSON snapshot produced by export.

All current entries are replaced. History is replaced only when the
snapshot carries a history array.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				result, err := a.Journal.Import(ctx, data)
				if err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("%s is not a valid journal snapshot", args[0])
				}
				fmt.Fprintf(out, "Imported %d entries\n", result.EntriesImported)
				return nil
			})
		},
	}
}

func newReindexCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the related-entries index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				start := time.Now()
				n, err := a.Journal.Reindex(ctx)
				if err != nil {
					if errors.Is(err, service.ErrNotConfigured) {
						return errors.New("related entries are not configured, set QDRANT_URL")
					}
					return fmt.Errorf("reindexed %d entries with errors: %w", n, err)
				}
				fmt.Fprintf(out, "Reindexed %d entries in %s\n", n, time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

func displayTitle(e journal.Entry) string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return "Untitled entry"
}

func printList(out io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}

// preview returns the first line of s, cut to at most n runes.
func preview(s string, n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	runes := []rune(line)
	if len(runes) <= n {
		return line
	}
	return string(runes[:n-1]) + "…"
}
