package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/scheduler"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Iterations int
	Budget     time.Duration
	MaxUnits   int
}

// BenchFrame holds pass latency statistics for one frame.
type BenchFrame struct {
	Frame  int    `json:"frame"`
	Passes int    `json:"passes"`
	Units  int64  `json:"units"`
	Slices int64  `json:"slices"`
	Avg    string `json:"avg"`
	Min    string `json:"min"`
	P50    string `json:"p50"`
	P75    string `json:"p75"`
	P99    string `json:"p99"`
	Max    string `json:"max"`
}

// BenchResult is the output of the bench command.
type BenchResult struct {
	Document   string       `json:"document"`
	Iterations int          `json:"iterations"`
	Passes     int          `json:"passes"`
	Units      int64        `json:"units"`
	Elapsed    string       `json:"elapsed"`
	Frames     []BenchFrame `json:"frames"`
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench <document>",
		Short: "Measure render pass latency",
		Long: `Render the frames of a document in a loop and report per-frame pass
latency from Render to commit.

The first iteration mounts the tree; later iterations reconcile against
the previous frame, so a single-frame document measures pure updates.

Examples:
  reconcile bench tree.yaml
  reconcile bench frames.cue --iters 5000 --budget 1ms`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Iterations, "iters", 1000, "number of times to render every frame")
	cmd.Flags().DurationVar(&opts.Budget, "budget", scheduler.DefaultFrameBudget, "time budget per work slice")
	cmd.Flags().IntVar(&opts.MaxUnits, "units", engine.DefaultMaxUnits, "unit limit per pass (0 disables)")

	return cmd
}

func runBench(opts *BenchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	if opts.Iterations <= 0 {
		return NewExitError(ExitCommandError, "--iters must be positive")
	}

	doc, err := LoadDocument(path)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(loadExitCode(err), "failed to load document", err)
	}

	// Only errors are logged, and only when verbose.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelError}))
	}
	s, err := newSession(ctx, sessionConfig{Budget: opts.Budget, MaxUnits: opts.MaxUnits, Logger: logger})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}
	defer s.Close()

	tachs := make([]*tachymeter.Tachymeter, len(doc.Frames))
	frames := make([]BenchFrame, len(doc.Frames))
	for i := range tachs {
		tachs[i] = tachymeter.New(&tachymeter.Config{Size: opts.Iterations})
		frames[i].Frame = i + 1
	}

	result := BenchResult{Document: path, Iterations: opts.Iterations}
	started := time.Now()
	for iter := 0; iter < opts.Iterations; iter++ {
		for i, frame := range doc.Frames {
			start := time.Now()
			p, err := s.renderFrame(ctx, frame)
			elapsed := time.Since(start)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("frame %d failed on iteration %d", i+1, iter+1), err)
			}
			tachs[i].AddTime(elapsed)
			frames[i].Passes++
			frames[i].Units += int64(p.Units)
			frames[i].Slices += int64(p.Slices)
			result.Passes++
			result.Units += int64(p.Units)
		}
	}
	result.Elapsed = time.Since(started).String()

	for i, tach := range tachs {
		calc := tach.Calc()
		frames[i].Avg = calc.Time.Avg.String()
		frames[i].Min = calc.Time.Min.String()
		frames[i].P50 = calc.Time.P50.String()
		frames[i].P75 = calc.Time.P75.String()
		frames[i].P99 = calc.Time.P99.String()
		frames[i].Max = calc.Time.Max.String()
	}
	result.Frames = frames

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	tbl := formatter.NewTable(fmt.Sprintf("%s x %s", path, humanize.Comma(int64(opts.Iterations))))
	tbl.AppendHeader(table.Row{"frame", "units/pass", "avg", "min", "p50", "p75", "p99", "max"})
	for _, f := range frames {
		tbl.AppendRow(table.Row{
			f.Frame,
			humanize.Comma(f.Units / int64(f.Passes)),
			f.Avg, f.Min, f.P50, f.P75, f.P99, f.Max,
		})
	}
	tbl.AppendFooter(table.Row{
		"total",
		fmt.Sprintf("%s units", humanize.Comma(result.Units)),
		fmt.Sprintf("%s passes", humanize.Comma(int64(result.Passes))),
		"", "", "", "",
		result.Elapsed,
	})
	tbl.Render()
	return nil
}
