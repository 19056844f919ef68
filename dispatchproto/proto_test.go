package dispatchproto_test

import (
	"errors"
	"testing"
	"time"

	"github.com/coroutinelabs/durablefn/dispatchproto"
)

func TestCallAccessors(t *testing.T) {
	input := dispatchproto.Int(11)
	call := dispatchproto.NewCall("http://example.com", "fn",
		dispatchproto.Input(input),
		dispatchproto.Expiration(time.Minute),
		dispatchproto.CorrelationID(123),
		dispatchproto.Version("v1"))

	if got, want := call.Endpoint(), "http://example.com"; got != want {
		t.Errorf("Endpoint() = %q, want %q", got, want)
	}
	if got, want := call.Function(), "fn"; got != want {
		t.Errorf("Function() = %q, want %q", got, want)
	}
	if got, want := call.Expiration(), time.Minute; got != want {
		t.Errorf("Expiration() = %v, want %v", got, want)
	}
	if got, want := call.CorrelationID(), uint64(123); got != want {
		t.Errorf("CorrelationID() = %d, want %d", got, want)
	}
	if got, want := call.Version(), "v1"; got != want {
		t.Errorf("Version() = %q, want %q", got, want)
	}
	if !call.Input().Equal(input) {
		t.Errorf("Input() = %v, want %v", call.Input(), input)
	}
}

func TestCallEqualAndClone(t *testing.T) {
	a := dispatchproto.NewCall("", "fn", dispatchproto.CorrelationID(1))
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("expected clone to be equal to the original")
	}

	c := a.With(dispatchproto.CorrelationID(2))
	if a.Equal(c) {
		t.Fatal("expected With to produce a distinct call")
	}
	if a.CorrelationID() != 1 {
		t.Fatal("expected With not to mutate the receiver")
	}
	if c.CorrelationID() != 2 {
		t.Fatalf("unexpected correlation id: %d", c.CorrelationID())
	}
}

func TestCallRequest(t *testing.T) {
	input := dispatchproto.String("hello")
	call := dispatchproto.NewCall("", "fn", dispatchproto.Input(input))
	req := call.Request()
	if got, want := req.Function(), "fn"; got != want {
		t.Errorf("Function() = %q, want %q", got, want)
	}
	got, ok := req.Input()
	if !ok {
		t.Fatal("expected request to carry an input directive")
	}
	if !got.Equal(input) {
		t.Errorf("Input() = %v, want %v", got, input)
	}
}

func TestCallResultOutputAndError(t *testing.T) {
	output := dispatchproto.Int(7)
	result := dispatchproto.NewCallResult(
		dispatchproto.CorrelationID(9),
		dispatchproto.Output(output),
		dispatchproto.DispatchID("dispatch-1"))

	if got, want := result.CorrelationID(), uint64(9); got != want {
		t.Errorf("CorrelationID() = %d, want %d", got, want)
	}
	if got, want := result.DispatchID(), dispatchproto.ID("dispatch-1"); got != want {
		t.Errorf("DispatchID() = %v, want %v", got, want)
	}
	got, ok := result.Output()
	if !ok {
		t.Fatal("expected an output")
	}
	if !got.Equal(output) {
		t.Errorf("Output() = %v, want %v", got, output)
	}
	if _, ok := result.Error(); ok {
		t.Fatal("expected no error")
	}
}

func TestCallResultError(t *testing.T) {
	cause := errors.New("boom")
	result := dispatchproto.NewCallResult(
		dispatchproto.CorrelationID(1),
		dispatchproto.NewError(cause))

	err, ok := result.Error()
	if !ok {
		t.Fatal("expected an error")
	}
	if got, want := err.Message(), "boom"; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
	if _, ok := result.Output(); ok {
		t.Fatal("expected no output")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		typ, msg, want string
	}{
		{"ValueError", "bad input", "ValueError: bad input"},
		{"ValueError", "", "ValueError"},
		{"", "bad input", "bad input"},
	}
	for _, test := range tests {
		err := dispatchproto.NewErrorMessage(test.typ, test.msg)
		if got := err.Error(); got != test.want {
			t.Errorf("Error() = %q, want %q", got, test.want)
		}
	}
}

func TestExitOutputAndTailCall(t *testing.T) {
	output := dispatchproto.Bool(true)
	exit := dispatchproto.NewExit(dispatchproto.Output(output))

	got, ok := exit.Output()
	if !ok {
		t.Fatal("expected exit to carry an output")
	}
	if !got.Equal(output) {
		t.Errorf("Output() = %v, want %v", got, output)
	}
	if _, ok := exit.TailCall(); ok {
		t.Fatal("expected no tail call")
	}

	tailCall := dispatchproto.NewCall("", "next")
	exit = dispatchproto.NewExit(dispatchproto.TailCall(tailCall))
	got2, ok := exit.TailCall()
	if !ok {
		t.Fatal("expected a tail call")
	}
	if !got2.Equal(tailCall) {
		t.Errorf("TailCall() = %v, want %v", got2, tailCall)
	}
}

func TestPollRoundTrip(t *testing.T) {
	state := dispatchproto.Int(42)
	call1 := dispatchproto.NewCall("", "a")
	call2 := dispatchproto.NewCall("", "b")

	poll := dispatchproto.NewPoll(1, 2, time.Second,
		dispatchproto.CoroutineState(state),
		dispatchproto.Calls(call1, call2))

	if got, want := poll.MinResults(), int32(1); got != want {
		t.Errorf("MinResults() = %d, want %d", got, want)
	}
	if got, want := poll.MaxResults(), int32(2); got != want {
		t.Errorf("MaxResults() = %d, want %d", got, want)
	}
	if got, want := poll.MaxWait(), time.Second; got != want {
		t.Errorf("MaxWait() = %v, want %v", got, want)
	}
	if !poll.CoroutineState().Equal(state) {
		t.Errorf("CoroutineState() = %v, want %v", poll.CoroutineState(), state)
	}
	calls := poll.Calls()
	if len(calls) != 2 || !calls[0].Equal(call1) || !calls[1].Equal(call2) {
		t.Fatalf("unexpected calls: %v", calls)
	}

	// Result() should carry the same coroutine state forward.
	result := poll.Result()
	if !result.CoroutineState().Equal(state) {
		t.Errorf("Result().CoroutineState() = %v, want %v", result.CoroutineState(), state)
	}
}

func TestPollResultAccessors(t *testing.T) {
	r1 := dispatchproto.NewCallResult(dispatchproto.CorrelationID(1), dispatchproto.Output(dispatchproto.Int(1)))
	r2 := dispatchproto.NewCallResult(dispatchproto.CorrelationID(2), dispatchproto.Output(dispatchproto.Int(2)))
	pollResult := dispatchproto.NewPollResult(dispatchproto.CallResults(r1, r2))

	results := pollResult.Results()
	if len(results) != 2 {
		t.Fatalf("unexpected number of results: %d", len(results))
	}
	if !results[0].Equal(r1) || !results[1].Equal(r2) {
		t.Fatalf("unexpected results: %v", results)
	}
	if _, ok := pollResult.Error(); ok {
		t.Fatal("expected no error")
	}
}

func TestRequestDirectives(t *testing.T) {
	now := time.Now()
	input := dispatchproto.String("hi")
	req := dispatchproto.NewRequest("fn",
		dispatchproto.Input(input),
		dispatchproto.ParentDispatchID("parent"),
		dispatchproto.RootDispatchID("root"),
		dispatchproto.CreationTime(now))

	if got, want := req.ParentID(), dispatchproto.ID("parent"); got != want {
		t.Errorf("ParentID() = %v, want %v", got, want)
	}
	if got, want := req.RootID(), dispatchproto.ID("root"); got != want {
		t.Errorf("RootID() = %v, want %v", got, want)
	}
	got, ok := req.Input()
	if !ok || !got.Equal(input) {
		t.Fatalf("Input() = %v, %v, want %v, true", got, ok, input)
	}
	if _, ok := req.PollResult(); ok {
		t.Fatal("expected no poll result directive")
	}
	creation, ok := req.CreationTime()
	if !ok || !creation.Equal(now) {
		t.Fatalf("CreationTime() = %v, %v, want %v, true", creation, ok, now)
	}
}

func TestResponseExitDefaultsToOK(t *testing.T) {
	resp := dispatchproto.NewResponse(dispatchproto.Output(dispatchproto.Int(1)))
	if !resp.OK() {
		t.Fatalf("expected OK status, got %v", resp.Status())
	}
	exit, ok := resp.Exit()
	if !ok {
		t.Fatal("expected an exit directive")
	}
	output, ok := exit.Output()
	if !ok || !output.Equal(dispatchproto.Int(1)) {
		t.Fatalf("unexpected output: %v, %v", output, ok)
	}
}

func TestResponseErrorDefaultsToPermanentError(t *testing.T) {
	resp := dispatchproto.NewResponse(dispatchproto.NewError(errors.New("boom")))
	if got, want := resp.Status(), dispatchproto.PermanentErrorStatus; got != want {
		t.Errorf("Status() = %v, want %v", got, want)
	}
}

func TestNewResponseError(t *testing.T) {
	resp := dispatchproto.NewResponseError(errors.New("boom"))
	if got, want := resp.Status(), dispatchproto.PermanentErrorStatus; got != want {
		t.Errorf("Status() = %v, want %v", got, want)
	}
	err, ok := resp.Error()
	if !ok || err.Message() != "boom" {
		t.Fatalf("unexpected error: %v, %v", err, ok)
	}
}

func TestResponsePoll(t *testing.T) {
	poll := dispatchproto.NewPoll(1, 1, time.Second)
	resp := dispatchproto.NewResponse(poll)
	if !resp.OK() {
		t.Fatalf("expected OK status, got %v", resp.Status())
	}
	got, ok := resp.Poll()
	if !ok {
		t.Fatal("expected a poll directive")
	}
	if !got.Equal(poll) {
		t.Errorf("Poll() = %v, want %v", got, poll)
	}
	if _, ok := resp.Exit(); ok {
		t.Fatal("expected no exit directive on a poll response")
	}
}
