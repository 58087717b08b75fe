package scheduler

import (
	"context"

	"github.com/roach88/reconcile/internal/engine"
)

// RunToCompletion drives eng synchronously until it is idle. It attaches
// eng to a ManualIdle and declares one idle period per slice, each with a
// fresh deadline from next. ctx is checked between slices only.
//
// It returns the number of slices run. A failed pass stops the drive and
// returns its error; the engine is idle again in that case.
func RunToCompletion(ctx context.Context, eng *engine.Engine, next func() engine.Deadline) (int, error) {
	if !eng.HasWork() {
		return 0, nil
	}

	var (
		idle   ManualIdle
		result error
	)
	Attach(&idle, eng, func(err error) {
		result = err
	})

	slices := 0
	for idle.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return slices, err
		}
		slices += idle.Idle(next())
	}
	return slices, result
}
