//go:build !durable

package dispatchcoro

import (
	"errors"

	"github.com/coroutinelabs/durablefn/dispatchproto"
)

// CorrelationID identifies a single in-flight call within one invocation of
// the scheduler, pairing it with the CallResult that eventually answers it.
type CorrelationID = uint64

// Future is a node of an await-expression tree: something a coroutine can
// suspend on until it produces a value or an error.
//
// Futures are not safe for concurrent use; a given Future (and its
// descendants) is only ever driven by a single call to Run.
type Future interface {
	// seed assigns correlation IDs to any leaf calls owned by this future
	// (and its descendants) that don't have one yet.
	seed(next func() CorrelationID)

	// pending returns the leaf calls that still need to be submitted to
	// the orchestrator. A call is returned by pending at most once across
	// the lifetime of a future.
	pending() []dispatchproto.Call

	// outstanding returns the number of leaf calls owned by this future
	// (and its descendants) that have been submitted but not yet resolved.
	outstanding() int

	// resolve attempts to produce a value using whatever call results are
	// currently available, consuming the entries it claims ownership of.
	// It returns ready=false if the future (or one of its descendants)
	// is still waiting on a result.
	resolve(results map[CorrelationID]dispatchproto.CallResult) (values []dispatchproto.Any, err error, ready bool)

	// fail delivers a poll-level error to every leaf call that has been
	// submitted but not yet resolved, as if each had itself failed with
	// err. It lets a surviving branch of an AnyOf/Race recover when the
	// error only reaches some of the tree's outstanding calls.
	fail(err error)
}

// Call creates a Future that resolves with the result of a single call.
func Call(call dispatchproto.Call) Future {
	return &callFuture{call: call}
}

type callFuture struct {
	call      dispatchproto.Call
	id        CorrelationID
	seeded    bool
	submitted bool
	resolved  bool
	result    dispatchproto.CallResult
	err       error // poll-level error injected in place of a call result
}

func (f *callFuture) seed(next func() CorrelationID) {
	if !f.seeded {
		f.id = next()
		f.call = f.call.With(dispatchproto.CorrelationID(f.id))
		f.seeded = true
	}
}

func (f *callFuture) pending() []dispatchproto.Call {
	if f.resolved || f.submitted {
		return nil
	}
	f.submitted = true
	return []dispatchproto.Call{f.call}
}

func (f *callFuture) outstanding() int {
	if f.submitted && !f.resolved {
		return 1
	}
	return 0
}

func (f *callFuture) resolve(results map[CorrelationID]dispatchproto.CallResult) ([]dispatchproto.Any, error, bool) {
	if f.resolved {
		return f.value()
	}
	result, ok := results[f.id]
	if !ok {
		return nil, nil, false
	}
	delete(results, f.id)
	f.resolved = true
	f.result = result
	return f.value()
}

func (f *callFuture) fail(err error) {
	if f.submitted && !f.resolved {
		f.resolved = true
		f.err = err
	}
}

func (f *callFuture) value() ([]dispatchproto.Any, error, bool) {
	if f.err != nil {
		return nil, f.err, true
	}
	if err, failed := f.result.Error(); failed {
		return nil, err, true
	}
	output, _ := f.result.Output()
	return []dispatchproto.Any{output}, nil, true
}

// AllOf creates a Future that resolves once every operand resolves, or as
// soon as any operand resolves with an error. The resolved value is the
// concatenation, in order, of every operand's value.
func AllOf(operands ...Future) Future {
	return &allFuture{operands: operands}
}

type allFuture struct {
	operands []Future
	done     bool
	values   []dispatchproto.Any
	err      error
}

func (f *allFuture) seed(next func() CorrelationID) {
	for _, op := range f.operands {
		op.seed(next)
	}
}

func (f *allFuture) pending() []dispatchproto.Call {
	if f.done {
		return nil
	}
	var calls []dispatchproto.Call
	for _, op := range f.operands {
		calls = append(calls, op.pending()...)
	}
	return calls
}

func (f *allFuture) outstanding() int {
	n := 0
	for _, op := range f.operands {
		n += op.outstanding()
	}
	return n
}

func (f *allFuture) fail(err error) {
	for _, op := range f.operands {
		op.fail(err)
	}
}

func (f *allFuture) resolve(results map[CorrelationID]dispatchproto.CallResult) ([]dispatchproto.Any, error, bool) {
	if f.done {
		return f.values, f.err, true
	}

	values := make([]dispatchproto.Any, 0, len(f.operands))
	allReady := true
	for _, op := range f.operands {
		v, err, ready := op.resolve(results)
		if !ready {
			allReady = false
			continue
		}
		if err != nil {
			f.done, f.err = true, err
			return nil, err, true
		}
		if allReady {
			values = append(values, v...)
		}
	}
	if !allReady {
		return nil, nil, false
	}
	f.done, f.values = true, values
	return values, nil, true
}

// AnyOf creates a Future that resolves as soon as any operand resolves
// without an error. If every operand resolves and all of them carry errors,
// AnyOf resolves with an error joining every operand's error.
func AnyOf(operands ...Future) Future {
	return &anyFuture{operands: operands}
}

type anyFuture struct {
	operands []Future
	done     bool
	value    []dispatchproto.Any
	err      error
}

func (f *anyFuture) seed(next func() CorrelationID) {
	for _, op := range f.operands {
		op.seed(next)
	}
}

func (f *anyFuture) pending() []dispatchproto.Call {
	if f.done {
		return nil
	}
	var calls []dispatchproto.Call
	for _, op := range f.operands {
		calls = append(calls, op.pending()...)
	}
	return calls
}

func (f *anyFuture) outstanding() int {
	n := 0
	for _, op := range f.operands {
		n += op.outstanding()
	}
	return n
}

func (f *anyFuture) fail(err error) {
	for _, op := range f.operands {
		op.fail(err)
	}
}

func (f *anyFuture) resolve(results map[CorrelationID]dispatchproto.CallResult) ([]dispatchproto.Any, error, bool) {
	if f.done {
		return f.value, f.err, true
	}

	var errs []error
	allReady := true
	for _, op := range f.operands {
		v, err, ready := op.resolve(results)
		if !ready {
			allReady = false
			continue
		}
		if err == nil {
			f.done, f.value = true, v
			return v, nil, true
		}
		errs = append(errs, err)
	}
	if !allReady {
		return nil, nil, false
	}
	f.done, f.err = true, joinErrors(errs)
	return nil, f.err, true
}

// joinErrors aggregates the errors reported by every failed operand of an
// AnyOf. A single failure is returned unwrapped rather than as a one-element
// joined error.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// Race creates a Future that resolves the moment any operand reaches a
// terminal state at all, success or failure, carrying that operand's value
// or error verbatim. The other operands are left unresolved.
func Race(operands ...Future) Future {
	return &raceFuture{operands: operands}
}

type raceFuture struct {
	operands []Future
	done     bool
	value    []dispatchproto.Any
	err      error
}

func (f *raceFuture) seed(next func() CorrelationID) {
	for _, op := range f.operands {
		op.seed(next)
	}
}

func (f *raceFuture) pending() []dispatchproto.Call {
	if f.done {
		return nil
	}
	var calls []dispatchproto.Call
	for _, op := range f.operands {
		calls = append(calls, op.pending()...)
	}
	return calls
}

func (f *raceFuture) outstanding() int {
	n := 0
	for _, op := range f.operands {
		n += op.outstanding()
	}
	return n
}

func (f *raceFuture) fail(err error) {
	for _, op := range f.operands {
		op.fail(err)
	}
}

func (f *raceFuture) resolve(results map[CorrelationID]dispatchproto.CallResult) ([]dispatchproto.Any, error, bool) {
	if f.done {
		return f.value, f.err, true
	}
	for _, op := range f.operands {
		v, err, ready := op.resolve(results)
		if !ready {
			continue
		}
		f.done, f.value, f.err = true, v, err
		return v, err, true
	}
	return nil, nil, false
}
