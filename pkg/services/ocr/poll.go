package ocr

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the terminal state of a bounded poll.
type Outcome int

const (
	// Pending is only returned by a check function; Poll never ends in it.
	Pending Outcome = iota
	Succeeded
	Failed
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CheckFunc inspects the remote operation once.
type CheckFunc func(ctx context.Context) (Outcome, error)

// Poll calls check up to attempts times, waiting interval between calls,
// until it reports Succeeded or Failed. Running out of attempts yields
// TimedOut with a nil error. An error from check, or a cancelled context,
// ends polling immediately.
func Poll(ctx context.Context, attempts int, interval time.Duration, check CheckFunc) (Outcome, error) {
	if attempts < 1 {
		return TimedOut, nil
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := check(ctx)
		if err != nil {
			return Pending, err
		}
		if outcome == Succeeded || outcome == Failed {
			return outcome, nil
		}

		if attempt == attempts {
			break
		}

		if err := wait(ctx, interval); err != nil {
			return Pending, err
		}
	}

	return TimedOut, nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
