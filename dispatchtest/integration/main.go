//go:build !durable

package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/coroutinelabs/durablefn"
	"github.com/coroutinelabs/durablefn/dispatchcoro"
	"github.com/coroutinelabs/durablefn/dispatchtest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	stringify := dispatch.Func("stringify", func(ctx context.Context, n int) (string, error) {
		return strconv.Itoa(n), nil
	})

	double := dispatch.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	doubleAndRepeat := dispatch.Func("double-repeat", func(ctx context.Context, n int) (string, error) {
		doubled, err := double.Await(n)
		if err != nil {
			return "", err
		}
		stringified, err := stringify.Await(doubled)
		if err != nil {
			return "", err
		}
		return strings.Repeat(stringified, doubled), nil
	})

	fanIn := dispatch.Func("fan-in", func(ctx context.Context, ns []int) (string, error) {
		futures := make([]dispatchcoro.Future, len(ns))
		for i, n := range ns {
			future, err := double.Spawn(n)
			if err != nil {
				return "", err
			}
			futures[i] = future
		}
		doubled, err := dispatch.All[int](futures...)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(doubled))
		for i, d := range doubled {
			parts[i] = strconv.Itoa(d)
		}
		return strings.Join(parts, ","), nil
	})

	runner := dispatchtest.NewRunner(stringify, double, doubleAndRepeat, fanIn)

	output, err := dispatchtest.Call(runner, doubleAndRepeat, 4)
	if err != nil {
		return err
	}
	if output != "88888888" {
		return fmt.Errorf("unexpected output: %q", output)
	}

	fanOutput, err := dispatchtest.Call(runner, fanIn, []int{3, 7})
	if err != nil {
		return err
	}
	if fanOutput != "6,14" {
		return fmt.Errorf("unexpected fan-in output: %q", fanOutput)
	}

	return nil
}
