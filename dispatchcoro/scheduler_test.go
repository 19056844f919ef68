//go:build !durable

package dispatchcoro

import (
	"errors"
	"testing"

	"github.com/coroutinelabs/durablefn/dispatchproto"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	cases := []struct{ coroutineID, callID uint32 }{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{123456, 7},
	}
	for _, c := range cases {
		id := makeCorrelationID(c.coroutineID, c.callID)
		if got := extractCoroutineID(id); got != c.coroutineID {
			t.Fatalf("extractCoroutineID(makeCorrelationID(%d, %d)) = %d, want %d", c.coroutineID, c.callID, got, c.coroutineID)
		}
		if got := extractCallID(id); got != c.callID {
			t.Fatalf("extractCallID(makeCorrelationID(%d, %d)) = %d, want %d", c.coroutineID, c.callID, got, c.callID)
		}
	}
}

// runResult drives a Run call to completion inside a real coroutine,
// answering each Poll directive with the CallResults produced by respond.
// respond is handed the calls advertised by that round's poll and returns
// the CallResults to deliver (which may be a strict subset of them) or a
// poll-level error; when the error is non-nil it is delivered in place of
// the results.
func runResult(t *testing.T, root Future, respond func(round int, calls []dispatchproto.Call) ([]dispatchproto.CallResult, error)) ([]dispatchproto.Any, error) {
	t.Helper()

	var values []dispatchproto.Any
	var runErr error
	coro := New(func() dispatchproto.Response {
		values, runErr = Run(root)
		return dispatchproto.NewResponse(dispatchproto.NewExit())
	})

	coro.Send(dispatchproto.NewRequest("fn"))
	round := 0
	for coro.Next() {
		yield := coro.Recv()
		poll, ok := yield.Poll()
		if !ok {
			t.Fatalf("expected a poll directive, got %s", yield)
		}
		round++
		results, respondErr := respond(round, poll.Calls())

		var pollResultOpts []dispatchproto.PollResultOption
		if respondErr != nil {
			pollResultOpts = append(pollResultOpts, dispatchproto.NewError(respondErr))
		} else {
			pollResultOpts = append(pollResultOpts, dispatchproto.CallResults(results...))
		}
		pollResult := dispatchproto.NewPollResult(pollResultOpts...)
		coro.Send(dispatchproto.NewRequest("fn", pollResult))
	}
	return values, runErr
}

func TestRunSurvivesPartialResultBatches(t *testing.T) {
	a := Call(dispatchproto.NewCall("", "a"))
	b := Call(dispatchproto.NewCall("", "b"))
	root := AllOf(a, b)

	var bCorrelationID uint64
	values, err := runResult(t, root, func(round int, calls []dispatchproto.Call) ([]dispatchproto.CallResult, error) {
		switch round {
		case 1:
			// Both calls submit in round 1; only one result is
			// delivered - the partial-batch behavior a conformant
			// orchestrator honoring a low minResults may exhibit.
			if len(calls) != 2 {
				t.Fatalf("round 1: expected 2 calls submitted, got %d", len(calls))
			}
			bCorrelationID = calls[1].CorrelationID()
			return []dispatchproto.CallResult{okResult(t, calls[0].CorrelationID(), 10)}, nil
		case 2:
			// b was already submitted in round 1, so pending() has
			// nothing new to offer this round - that must not be
			// mistaken for the tree being stuck.
			if len(calls) != 0 {
				t.Fatalf("round 2: expected no newly submitted calls, got %d", len(calls))
			}
			return []dispatchproto.CallResult{okResult(t, bCorrelationID, 20)}, nil
		default:
			t.Fatalf("unexpected round %d", round)
			return nil, nil
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var x, y int
	if err := values[0].Unmarshal(&x); err != nil {
		t.Fatal(err)
	}
	if err := values[1].Unmarshal(&y); err != nil {
		t.Fatal(err)
	}
	if x != 10 || y != 20 {
		t.Fatalf("unexpected values: %d, %d", x, y)
	}
}

func TestRunPollErrorOnlyHitsStillOutstandingLeaves(t *testing.T) {
	a := Call(dispatchproto.NewCall("", "a"))
	b := Call(dispatchproto.NewCall("", "b"))
	root := AllOf(a, b)

	boom := errors.New("boom")
	values, err := runResult(t, root, func(round int, calls []dispatchproto.Call) ([]dispatchproto.CallResult, error) {
		switch round {
		case 1:
			// a resolves; b is still outstanding.
			return []dispatchproto.CallResult{okResult(t, calls[0].CorrelationID(), 10)}, nil
		case 2:
			// A poll-level error now: only b is still outstanding, so
			// it alone is thrown into; the error reaches Run as the
			// poll result's own Error (same message) rather than a
			// generic wrapped "poll error".
			return nil, boom
		default:
			t.Fatalf("unexpected round %d", round)
			return nil, nil
		}
	})
	if values != nil {
		t.Fatalf("expected no values on a failed AllOf, got %v", values)
	}
	var pollErr dispatchproto.Error
	if !errors.As(err, &pollErr) || pollErr.Message() != boom.Error() {
		t.Fatalf("expected the poll-level error to surface unwrapped, got: %v", err)
	}
}
