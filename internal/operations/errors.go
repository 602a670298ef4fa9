package operations

import (
	"context"
	"errors"
)

// ErrCancelled marks a run aborted by cooperative cancellation. It is
// distinguished from genuine failure: callers report it as a status update,
// never as an error. Output files already written when cancellation is
// observed are left in place.
var ErrCancelled = errors.New("analysis cancelled")

// ErrSubscriptionRequired is returned when no subscription file is given.
var ErrSubscriptionRequired = errors.New("subscription file path is required")

// IsCancelled reports whether an error represents cooperative cancellation,
// either ours or the context package's.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// checkCancelled polls the cancellation flag; called before every stage.
func checkCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}
