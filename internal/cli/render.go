package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/host/memhost"
	"github.com/roach88/reconcile/internal/scheduler"
	"github.com/roach88/reconcile/internal/trace"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Database  string
	Container string
	Budget    time.Duration
	MaxUnits  int
	Live      bool
	Interval  time.Duration
}

// FrameResult describes the pass that rendered one frame.
type FrameResult struct {
	Frame      int    `json:"frame"`
	PassID     string `json:"pass_id,omitempty"`
	Seq        int64  `json:"seq,omitempty"`
	Status     string `json:"status"`
	Units      int    `json:"units"`
	Slices     int    `json:"slices"`
	Placements int    `json:"placements"`
	Updates    int    `json:"updates"`
	Deletions  int    `json:"deletions"`
	Error      string `json:"error,omitempty"`
}

// RenderResult is the output of the render command.
type RenderResult struct {
	Document    string        `json:"document"`
	Frames      []FrameResult `json:"frames"`
	Host        string        `json:"host"`
	Nodes       int           `json:"nodes"`
	Fingerprint string        `json:"fingerprint"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render tree frames into an in-memory host",
		Long: `Render every frame of a tree document in order and print the resulting
host tree.

Each frame is one render pass, driven in slices of --budget. Passes can be
appended to a SQLite commit log with --db and inspected later with trace.

With --live the engine runs on its own render loop goroutine, which spaces
the slices of a pass --interval apart; frames are submitted to it one at a
time.

Exit codes:
  0 - Every frame committed
  1 - A frame was rejected or its pass aborted
  2 - Command error (missing file, database error, etc.)

Examples:
  reconcile render tree.yaml
  reconcile render frames.cue --db ./passes.db
  reconcile render frames.json --budget 2ms --units 500 --format json
  reconcile render frames.yaml --live --budget 1ms --interval 5ms`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "append passes to this SQLite commit log")
	cmd.Flags().StringVar(&opts.Container, "container", "root", "tag of the host container")
	cmd.Flags().DurationVar(&opts.Budget, "budget", scheduler.DefaultFrameBudget, "time budget per work slice")
	cmd.Flags().IntVar(&opts.MaxUnits, "units", engine.DefaultMaxUnits, "unit limit per pass (0 disables)")
	cmd.Flags().BoolVar(&opts.Live, "live", false, "render on a background render loop")
	cmd.Flags().DurationVar(&opts.Interval, "interval", scheduler.DefaultFrameInterval, "pause between slices with --live")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := LoadDocument(path)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(loadExitCode(err), "failed to load document", err)
	}
	formatter.VerboseLog("Loaded %d frame(s) from %s", len(doc.Frames), path)

	s, err := newSession(ctx, sessionConfig{
		Container: opts.Container,
		Budget:    opts.Budget,
		MaxUnits:  opts.MaxUnits,
		Database:  opts.Database,
		Logger:    opts.Logger(formatter.GetErrWriter()),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	outcomes, err := renderFrames(ctx, s, doc.Frames, opts)
	if err != nil {
		s.Close()
		return WrapExitError(ExitCommandError, "render loop stopped", err)
	}

	result := RenderResult{Document: path, Frames: make([]FrameResult, 0, len(outcomes))}
	failed := 0
	for i, o := range outcomes {
		fr := FrameResult{Frame: i + 1}
		if o.pass != nil {
			fr = frameResult(i+1, o.pass)
		}
		if o.err != nil {
			if o.pass == nil {
				fr.Status = "rejected"
				fr.Error = o.err.Error()
			}
			failed++
		}
		result.Frames = append(result.Frames, fr)
	}

	result.Host = s.dump()
	result.Nodes = memhost.Size(s.container)
	result.Fingerprint = fmt.Sprintf("%016x", memhost.Fingerprint(s.container))

	if err := s.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write commit log", err)
	}

	if opts.Format == "json" {
		if failed > 0 {
			if err := formatter.Error(ErrCodeRenderFailed, fmt.Sprintf("%d frame(s) failed", failed), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputRenderText(formatter, result)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d frame(s) failed", failed))
	}
	return nil
}

// renderFrames renders every frame, on a render loop with --live and
// synchronously otherwise.
func renderFrames(ctx context.Context, s *session, frames []*element.Element, opts *RenderOptions) ([]frameOutcome, error) {
	if opts.Live {
		return s.renderLive(ctx, frames, opts.Interval)
	}
	outcomes := make([]frameOutcome, 0, len(frames))
	for _, el := range frames {
		p, err := s.renderFrame(ctx, el)
		outcomes = append(outcomes, frameOutcome{pass: p, err: err})
	}
	return outcomes, nil
}

func frameResult(frame int, p *trace.Pass) FrameResult {
	return FrameResult{
		Frame:      frame,
		PassID:     p.ID,
		Seq:        p.Seq,
		Status:     p.Status,
		Units:      p.Units,
		Slices:     p.Slices,
		Placements: p.Count("Placement"),
		Updates:    p.Count("Update"),
		Deletions:  p.Count("Deletion"),
		Error:      p.Error,
	}
}

func outputRenderText(f *OutputFormatter, result RenderResult) {
	tbl := f.NewTable(result.Document)
	tbl.AppendHeader(table.Row{"frame", "pass", "seq", "status", "units", "slices", "placed", "updated", "deleted"})
	for _, fr := range result.Frames {
		tbl.AppendRow(table.Row{
			fr.Frame,
			fr.PassID,
			fr.Seq,
			fr.Status,
			humanize.Comma(int64(fr.Units)),
			fr.Slices,
			fr.Placements,
			fr.Updates,
			fr.Deletions,
		})
	}
	tbl.Render()

	for _, fr := range result.Frames {
		if fr.Error != "" {
			fmt.Fprintf(f.Writer, "frame %d: %s\n", fr.Frame, fr.Error)
		}
	}

	fmt.Fprintln(f.Writer)
	fmt.Fprint(f.Writer, result.Host)
	fmt.Fprintf(f.Writer, "%s node(s), fingerprint %s\n", humanize.Comma(int64(result.Nodes)), result.Fingerprint)
}
