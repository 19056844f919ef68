//go:build !durable

package dispatch_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/coroutinelabs/durablefn"
	"github.com/coroutinelabs/durablefn/dispatchcoro"
	"github.com/coroutinelabs/durablefn/dispatchtest"
)

func TestFunctionAwait(t *testing.T) {
	double := dispatch.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	caller := dispatch.Func("caller", func(ctx context.Context, n int) (int, error) {
		return double.Await(n)
	})

	runner := dispatchtest.NewRunner(double, caller)
	output, err := dispatchtest.Call(runner, caller, 21)
	if err != nil {
		t.Fatal(err)
	}
	if output != 42 {
		t.Fatalf("unexpected output: %d", output)
	}
}

func TestFunctionGather(t *testing.T) {
	double := dispatch.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	caller := dispatch.Func("caller", func(ctx context.Context, ns []int) ([]int, error) {
		return double.Gather(ns)
	})

	runner := dispatchtest.NewRunner(double, caller)
	output, err := dispatchtest.Call(runner, caller, []int{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(output) != 3 || output[0] != 2 || output[1] != 4 || output[2] != 6 {
		t.Fatalf("unexpected output: %v", output)
	}
}

func TestFunctionSpawnAndAll(t *testing.T) {
	double := dispatch.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	stringify := dispatch.Func("stringify", func(ctx context.Context, n int) (string, error) {
		return strconv.Itoa(n), nil
	})
	caller := dispatch.Func("caller", func(ctx context.Context, n int) ([]int, error) {
		a, err := double.Spawn(n)
		if err != nil {
			return nil, err
		}
		b, err := double.Spawn(n + 1)
		if err != nil {
			return nil, err
		}
		return dispatch.All[int](a, b)
	})

	runner := dispatchtest.NewRunner(double, stringify, caller)
	output, err := dispatchtest.Call(runner, caller, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(output) != 2 || output[0] != 20 || output[1] != 22 {
		t.Fatalf("unexpected output: %v", output)
	}
}

func TestFunctionAny(t *testing.T) {
	ok := dispatch.Func("ok", func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	fail := dispatch.Func("fail", func(ctx context.Context, n int) (int, error) {
		return 0, errors.New("always fails")
	})
	caller := dispatch.Func("any-caller", func(ctx context.Context, n int) (int, error) {
		a, err := fail.Spawn(n)
		if err != nil {
			return 0, err
		}
		b, err := ok.Spawn(n)
		if err != nil {
			return 0, err
		}
		return dispatch.Any[int](a, b)
	})

	runner := dispatchtest.NewRunner(ok, fail, caller)
	output, err := dispatchtest.Call(runner, caller, 7)
	if err != nil {
		t.Fatal(err)
	}
	if output != 7 {
		t.Fatalf("unexpected output: %d", output)
	}
}

func TestFunctionAnyAllFail(t *testing.T) {
	fail := dispatch.Func("fail", func(ctx context.Context, n int) (int, error) {
		return 0, errors.New("always fails")
	})
	caller := dispatch.Func("any-all-fail-caller", func(ctx context.Context, n int) (int, error) {
		a, err := fail.Spawn(n)
		if err != nil {
			return 0, err
		}
		b, err := fail.Spawn(n)
		if err != nil {
			return 0, err
		}
		return dispatch.Any[int](a, b)
	})

	runner := dispatchtest.NewRunner(fail, caller)
	_, err := dispatchtest.Call(runner, caller, 7)
	if err == nil {
		t.Fatal("expected an error when every Any operand fails")
	}
}

func TestFunctionRace(t *testing.T) {
	double := dispatch.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	caller := dispatch.Func("race-caller", func(ctx context.Context, n int) (int, error) {
		a, err := double.Spawn(n)
		if err != nil {
			return 0, err
		}
		b, err := double.Spawn(n)
		if err != nil {
			return 0, err
		}
		return dispatch.Race[int](a, b)
	})

	runner := dispatchtest.NewRunner(double, caller)
	output, err := dispatchtest.Call(runner, caller, 5)
	if err != nil {
		t.Fatal(err)
	}
	if output != 10 {
		t.Fatalf("unexpected output: %d", output)
	}
}

func TestFunctionNestedCombinators(t *testing.T) {
	double := dispatch.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	caller := dispatch.Func("nested-caller", func(ctx context.Context, n int) ([]int, error) {
		a, err := double.Spawn(n)
		if err != nil {
			return nil, err
		}
		b, err := double.Spawn(n + 1)
		if err != nil {
			return nil, err
		}
		c, err := double.Spawn(n + 2)
		if err != nil {
			return nil, err
		}
		raced, err := dispatchcoro.Run(dispatchcoro.AllOf(dispatchcoro.Race(a, b), c))
		if err != nil {
			return nil, err
		}
		values := make([]int, len(raced))
		for i, v := range raced {
			if err := v.Unmarshal(&values[i]); err != nil {
				return nil, err
			}
		}
		return values, nil
	})

	runner := dispatchtest.NewRunner(double, caller)
	output, err := dispatchtest.Call(runner, caller, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Both race operands' results arrive in the same round trip here, so
	// Race deterministically favors the first operand (a, i.e. double(n)).
	if len(output) != 2 || output[0] != 2 || output[1] != 6 {
		t.Fatalf("unexpected output: %v", output)
	}
}
