package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/store"
	"github.com/roach88/reconcile/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	PassID   string // optional - show one pass with its effects
	Limit    int
}

// TraceResult holds the commit log listing.
type TraceResult struct {
	Passes []trace.Pass `json:"passes"`
	Stats  store.Stats  `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect the commit log",
		Long: `List the render passes recorded in a commit log, or show the effects
of one pass in the order the commit applied them.

The listing includes:
- Passes: sequence number, ID, status and work counters
- Stats: committed and aborted passes, total units, effects by kind

Examples:
  reconcile trace --db ./passes.db
  reconcile trace --db ./passes.db --limit 10
  reconcile trace --db ./passes.db --pass 0190f5c2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite commit log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.PassID, "pass", "", "pass ID to show with its effects")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the newest N passes (0 shows all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database, store.ReadOnly())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.PassID != "" {
		p, err := st.ReadPass(ctx, opts.PassID)
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitFailure, "no such pass", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read pass", err)
		}
		if opts.Format == "json" {
			return formatter.Success(p)
		}
		outputPassText(formatter, p)
		return nil
	}

	passes, err := st.ListPasses(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list passes", err)
	}
	stats, err := st.ReadStats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stats", err)
	}

	result := TraceResult{Passes: passes, Stats: stats}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	if len(passes) == 0 {
		fmt.Fprintln(formatter.Writer, "No passes recorded.")
		return nil
	}
	outputTraceText(formatter, result)
	return nil
}

func outputTraceText(f *OutputFormatter, result TraceResult) {
	tbl := f.NewTable("passes")
	tbl.AppendHeader(table.Row{"seq", "pass", "status", "units", "slices", "error"})
	for _, p := range result.Passes {
		tbl.AppendRow(table.Row{p.Seq, p.ID, p.Status, humanize.Comma(int64(p.Units)), p.Slices, p.Error})
	}

	st := result.Stats
	kinds := make([]string, 0, len(st.Effects))
	for k := range st.Effects {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	effects := ""
	for i, k := range kinds {
		if i > 0 {
			effects += ", "
		}
		effects += fmt.Sprintf("%s %s", humanize.Comma(int64(st.Effects[k])), k)
	}

	tbl.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%s passes", humanize.Comma(int64(st.Passes))),
		fmt.Sprintf("%d committed / %d aborted", st.Committed, st.Aborted),
		humanize.Comma(int64(st.Units)),
		"",
		effects,
	})
	tbl.Render()
}

func outputPassText(f *OutputFormatter, p trace.Pass) {
	fmt.Fprintf(f.Writer, "Pass %s (seq %d): %s, %s unit(s) in %d slice(s)\n",
		p.ID, p.Seq, p.Status, humanize.Comma(int64(p.Units)), p.Slices)
	if p.Error != "" {
		fmt.Fprintf(f.Writer, "Error: %s\n", p.Error)
	}
	if f.Verbose && p.TreeHash != "" {
		fmt.Fprintf(f.Writer, "Tree: %s\n", p.TreeHash)
	}
	if len(p.Effects) == 0 {
		fmt.Fprintln(f.Writer, "No effects.")
		return
	}

	tbl := f.NewTable("")
	tbl.AppendHeader(table.Row{"#", "phase", "effect", "fiber", "depth", "props"})
	for i, e := range p.Effects {
		tbl.AppendRow(table.Row{i + 1, e.Phase, e.Effect, e.Label, e.Depth, e.Props})
	}
	tbl.Render()
}
