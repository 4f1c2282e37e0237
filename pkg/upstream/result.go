// FILE: pkg/upstream/result.go
// PURPOSE: Budgeted calls to external collaborators with an explicit outcome instead of a thrown error

package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status of an upstream call
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusFailure Status = "failure"
)

// Result carries the value of a successful call, or why it did not succeed.
// Callers fold every non-OK status into their fail-open branch.
type Result[T any] struct {
	Value    T
	Status   Status
	Err      error
	Duration time.Duration
}

// OK reports whether the call succeeded
func (r Result[T]) OK() bool {
	return r.Status == StatusOK
}

// ValueOr returns the value on success, otherwise the fallback
func (r Result[T]) ValueOr(fallback T) T {
	if r.Status == StatusOK {
		return r.Value
	}
	return fallback
}

// ErrPanic wraps a panic recovered inside an upstream call
var ErrPanic = errors.New("upstream panicked")

// Call runs fn under a hard wall-clock budget. fn receives a context that is cancelled
// when the budget elapses or the parent context is done. Call returns as soon as the
// budget elapses even if fn ignores its context.
func Call[T any](ctx context.Context, budget time.Duration, fn func(ctx context.Context) (T, error)) Result[T] {
	start := time.Now()

	var zero T
	if err := ctx.Err(); err != nil {
		return Result[T]{Value: zero, Status: StatusFailure, Err: err}
	}

	callCtx := ctx
	cancel := func() {}
	if budget > 0 {
		callCtx, cancel = context.WithTimeout(ctx, budget)
	}
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{value: zero, err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		v, err := fn(callCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				return Result[T]{Value: zero, Status: StatusTimeout, Err: out.err, Duration: elapsed}
			}
			return Result[T]{Value: zero, Status: StatusFailure, Err: out.err, Duration: elapsed}
		}
		return Result[T]{Value: out.value, Status: StatusOK, Duration: elapsed}
	case <-callCtx.Done():
		elapsed := time.Since(start)
		err := callCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return Result[T]{Value: zero, Status: StatusTimeout, Err: err, Duration: elapsed}
		}
		return Result[T]{Value: zero, Status: StatusFailure, Err: err, Duration: elapsed}
	}
}
