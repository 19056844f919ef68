//go:build !durable

package dispatchproto_test

import (
	"context"
	"testing"

	"github.com/coroutinelabs/durablefn/dispatchproto"
)

func TestFunctionMapRunDispatchesByName(t *testing.T) {
	var called string
	functions := dispatchproto.FunctionMap{
		"fn": func(ctx context.Context, req dispatchproto.Request) dispatchproto.Response {
			called = req.Function()
			return dispatchproto.NewResponse(dispatchproto.Output(dispatchproto.Int(1)))
		},
	}

	resp := functions.Run(context.Background(), dispatchproto.NewRequest("fn"))
	if called != "fn" {
		t.Fatalf("unexpected function invoked: %q", called)
	}
	if !resp.OK() {
		t.Fatalf("unexpected status: %v", resp.Status())
	}
}

func TestFunctionMapRunUnknownFunction(t *testing.T) {
	functions := dispatchproto.FunctionMap{}

	resp := functions.Run(context.Background(), dispatchproto.NewRequest("missing"))
	if got, want := resp.Status(), dispatchproto.NotFoundStatus; got != want {
		t.Errorf("Status() = %v, want %v", got, want)
	}
	err, ok := resp.Error()
	if !ok {
		t.Fatal("expected an error")
	}
	if got, want := err.Message(), `function "missing" not found`; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}
