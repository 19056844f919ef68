//go:build !durable

package dispatch

import (
	"fmt"

	"github.com/coroutinelabs/durablefn/dispatchcoro"
)

// All awaits every Future, in order, and returns their outputs once all of
// them have resolved. It fails fast: the first error produced by any Future
// is returned without waiting for the rest to complete.
//
// All should only be called within a Dispatch Function (created via Func).
// The supplied Futures may come from different functions, including ones
// nested within their own All, Any or Race compositions.
func All[O any](futures ...dispatchcoro.Future) ([]O, error) {
	if len(futures) == 0 {
		return nil, nil
	}
	values, err := dispatchcoro.Run(dispatchcoro.AllOf(futures...))
	if err != nil {
		return nil, err
	}
	outputs := make([]O, len(values))
	for i, v := range values {
		if err := v.Unmarshal(&outputs[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal output %d: %w", i, err)
		}
	}
	return outputs, nil
}

// Any awaits the Futures and returns the output of the first one to resolve
// without an error. If every Future resolves with an error, Any fails with
// an error joining all of them.
//
// Any should only be called within a Dispatch Function (created via Func).
func Any[O any](futures ...dispatchcoro.Future) (O, error) {
	var zero O
	if len(futures) == 0 {
		return zero, nil
	}
	values, err := dispatchcoro.Run(dispatchcoro.AnyOf(futures...))
	if err != nil {
		return zero, err
	}
	if err := values[0].Unmarshal(&zero); err != nil {
		return zero, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return zero, nil
}

// Race awaits the Futures and returns the result of whichever one reaches a
// terminal state first, success or failure. The other Futures are left
// unresolved; their calls may still run to completion, but their results are
// never observed by the caller.
//
// Race should only be called within a Dispatch Function (created via Func).
func Race[O any](futures ...dispatchcoro.Future) (O, error) {
	var zero O
	if len(futures) == 0 {
		return zero, nil
	}
	values, err := dispatchcoro.Run(dispatchcoro.Race(futures...))
	if err != nil {
		return zero, err
	}
	if err := values[0].Unmarshal(&zero); err != nil {
		return zero, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return zero, nil
}
