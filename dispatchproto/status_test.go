package dispatchproto_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"connectrpc.com/connect"
	"golang.org/x/sys/unix"

	"github.com/coroutinelabs/durablefn/dispatchproto"
)

func TestStatusString(t *testing.T) {
	if got, want := dispatchproto.OKStatus.String(), "OK"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := dispatchproto.Status(-1).String(), "Status(-1)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want dispatchproto.Status
	}{
		{nil, dispatchproto.OKStatus},
		{context.Canceled, dispatchproto.TemporaryErrorStatus},
		{context.DeadlineExceeded, dispatchproto.TimeoutStatus},
		{os.ErrPermission, dispatchproto.PermissionDeniedStatus},
		{os.ErrNotExist, dispatchproto.NotFoundStatus},
		{errors.New("boom"), dispatchproto.PermanentErrorStatus},
		{dispatchproto.StatusError(dispatchproto.TimeoutStatus), dispatchproto.TimeoutStatus},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), dispatchproto.TimeoutStatus},
	}
	for _, test := range tests {
		if got := dispatchproto.ErrorStatus(test.err); got != test.want {
			t.Errorf("ErrorStatus(%v) = %v, want %v", test.err, got, test.want)
		}
	}
}

func TestErrorStatusErrno(t *testing.T) {
	tests := []struct {
		errno unix.Errno
		want  dispatchproto.Status
	}{
		{unix.ECONNREFUSED, dispatchproto.TCPErrorStatus},
		{unix.ETIMEDOUT, dispatchproto.TimeoutStatus},
		{unix.EPERM, dispatchproto.PermissionDeniedStatus},
		{unix.EAGAIN, dispatchproto.TemporaryErrorStatus},
		{unix.ENOENT, dispatchproto.PermanentErrorStatus},
	}
	for _, test := range tests {
		if got := dispatchproto.ErrorStatus(test.errno); got != test.want {
			t.Errorf("ErrorStatus(%v) = %v, want %v", test.errno, got, test.want)
		}
	}
}

func TestErrorStatusConnect(t *testing.T) {
	tests := []struct {
		code connect.Code
		want dispatchproto.Status
	}{
		{connect.CodeNotFound, dispatchproto.NotFoundStatus},
		{connect.CodeDeadlineExceeded, dispatchproto.TimeoutStatus},
		{connect.CodeResourceExhausted, dispatchproto.ThrottledStatus},
		{connect.CodeUnauthenticated, dispatchproto.UnauthenticatedStatus},
		{connect.CodePermissionDenied, dispatchproto.PermissionDeniedStatus},
		{connect.CodeInvalidArgument, dispatchproto.InvalidArgumentStatus},
	}
	for _, test := range tests {
		err := connect.NewError(test.code, errors.New("failed"))
		if got := dispatchproto.ErrorStatus(err); got != test.want {
			t.Errorf("ErrorStatus(%v) = %v, want %v", err, got, test.want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	if got, want := dispatchproto.StatusOf(nil), dispatchproto.OKStatus; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := dispatchproto.StatusOf(errors.New("boom")), dispatchproto.PermanentErrorStatus; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := dispatchproto.StatusOf(dispatchproto.StatusError(dispatchproto.TimeoutStatus)), dispatchproto.TimeoutStatus; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
