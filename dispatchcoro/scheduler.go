//go:build !durable

package dispatchcoro

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/coroutinelabs/durablefn/dispatchproto"
)

// PollBounds bounds the minResults, maxResults, and maxWait a Run
// invocation advertises on each poll it issues. MinResults and MaxResults
// are clamped to the number of calls actually outstanding that round, so a
// bound wider than the tree's needs never blocks Run on results that will
// never arrive.
type PollBounds struct {
	// MinResults caps how many outstanding results the orchestrator must
	// gather before waking the coroutine again. The default waits for
	// every outstanding call each round.
	MinResults int

	// MaxResults caps how many results a single poll may batch.
	MaxResults int

	// MaxWait is the longest the orchestrator may delay a poll response
	// while batching results.
	MaxWait time.Duration
}

func defaultPollBounds() PollBounds {
	return PollBounds{MinResults: maxInt, MaxResults: maxInt, MaxWait: 5 * time.Minute}
}

// maxInt is a stand-in for "no configured bound"; clamping against the
// outstanding call count leaves it without effect.
const maxInt = int(^uint(0) >> 1)

// RunOption configures a Run invocation.
type RunOption interface{ configureRun(*PollBounds) }

type runOptionFunc func(*PollBounds)

func (fn runOptionFunc) configureRun(b *PollBounds) { fn(b) }

// WithPollBounds overrides the minResults/maxResults/maxWait a Run
// invocation advertises on its polls.
func WithPollBounds(bounds PollBounds) RunOption {
	return runOptionFunc(func(b *PollBounds) { *b = bounds })
}

// makeCorrelationID packs a coroutine identifier and a per-call sequence
// number into the CorrelationID carried on outbound calls, so a result can
// be routed back to the coroutine ID it was issued for.
func makeCorrelationID(coroutineID, callID uint32) CorrelationID {
	return uint64(coroutineID)<<32 | uint64(callID)
}

func extractCoroutineID(id CorrelationID) uint32 { return uint32(id >> 32) }

func extractCallID(id CorrelationID) uint32 { return uint32(id) }

// Run drives an await-expression tree to completion, suspending the current
// coroutine (via Yield) once per round trip for as many round trips as the
// tree needs.
//
// Each round trip polls for every leaf call in the tree that hasn't yet been
// submitted to the orchestrator, plus however many are still outstanding
// from earlier round trips. Call results that don't match a correlation ID
// this tree is still waiting on are silently discarded, since Dispatch's
// at-least-once delivery may redeliver a result from an earlier invocation.
// A poll-level error is thrown into every call this tree still has
// outstanding, so a surviving AnyOf/Race branch can still recover.
func Run(root Future, opts ...RunOption) ([]dispatchproto.Any, error) {
	bounds := defaultPollBounds()
	for _, opt := range opts {
		opt.configureRun(&bounds)
	}

	coroutineID := rand.Uint32()
	var nextCallID uint32
	root.seed(func() CorrelationID {
		callID := nextCallID
		nextCallID++
		return makeCorrelationID(coroutineID, callID)
	})

	results := map[CorrelationID]dispatchproto.CallResult{}

	for {
		if values, err, ready := root.resolve(results); ready {
			return values, err
		}

		calls := root.pending()
		outstanding := root.outstanding()
		if len(calls) == 0 && outstanding == 0 {
			return nil, fmt.Errorf("dispatchcoro: await tree is stuck: nothing pending and not resolved")
		}

		minResults := max(1, min(outstanding, bounds.MinResults))
		maxResults := max(1, min(outstanding, bounds.MaxResults))

		poll := dispatchproto.NewResponse(dispatchproto.NewPoll(minResults, maxResults, bounds.MaxWait, dispatchproto.Calls(calls...)))
		req := Yield(poll)

		pollResult, ok := req.PollResult()
		if !ok {
			return nil, fmt.Errorf("unexpected response when polling: %s", req)
		}
		if err, ok := pollResult.Error(); ok {
			root.fail(err)
			continue
		}
		for _, result := range pollResult.Results() {
			results[result.CorrelationID()] = result
		}
	}
}

// Gather calls functions concurrently and awaits every result. It fails
// fast with the first error produced by any call, without waiting for the
// rest.
func Gather[O any](calls ...dispatchproto.Call) ([]O, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	operands := make([]Future, len(calls))
	for i, call := range calls {
		operands[i] = Call(call)
	}
	values, err := Run(AllOf(operands...))
	if err != nil {
		return nil, err
	}
	outputs := make([]O, len(values))
	for i, v := range values {
		if err := v.Unmarshal(&outputs[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal call %d output: %w", i, err)
		}
	}
	return outputs, nil
}

// AnyResult calls functions concurrently and awaits the first successful
// result. It only fails if every call fails, joining all of their errors.
func AnyResult[O any](calls ...dispatchproto.Call) (O, error) {
	var zero O
	if len(calls) == 0 {
		return zero, nil
	}
	operands := make([]Future, len(calls))
	for i, call := range calls {
		operands[i] = Call(call)
	}
	values, err := Run(AnyOf(operands...))
	if err != nil {
		return zero, err
	}
	if err := values[0].Unmarshal(&zero); err != nil {
		return zero, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return zero, nil
}

// RaceResult calls functions concurrently and awaits whichever one reaches a
// result first, success or failure, ignoring the rest.
func RaceResult[O any](calls ...dispatchproto.Call) (O, error) {
	var zero O
	if len(calls) == 0 {
		return zero, nil
	}
	operands := make([]Future, len(calls))
	for i, call := range calls {
		operands[i] = Call(call)
	}
	values, err := Run(Race(operands...))
	if err != nil {
		return zero, err
	}
	if err := values[0].Unmarshal(&zero); err != nil {
		return zero, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return zero, nil
}
