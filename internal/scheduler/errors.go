package scheduler

import "errors"

// ErrLoopStopped is returned by Submit after Stop.
var ErrLoopStopped = errors.New("render loop stopped")
