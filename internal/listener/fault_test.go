package listener_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omochice/toy-chat-clients/internal/listener"
	"github.com/omochice/toy-chat-clients/internal/sink"
)

func opError(errno syscall.Errno) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: errno}}
}

func readError(errno syscall.Errno) error {
	return &net.OpError{Op: "read", Net: "tcp", Err: &os.SyscallError{Syscall: "read", Err: errno}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want listener.Fault
	}{
		{name: "nil", err: nil, want: listener.FaultNone},
		{name: "name resolution", err: &net.DNSError{Err: "no such host", Name: "chat.invalid", IsNotFound: true}, want: listener.FaultConnectivity},
		{name: "refused", err: opError(syscall.ECONNREFUSED), want: listener.FaultConnectivity},
		{name: "reset", err: opError(syscall.ECONNRESET), want: listener.FaultConnectivity},
		{name: "wrapped refused", err: fmt.Errorf("failed to connect to x: %w", opError(syscall.ECONNREFUSED)), want: listener.FaultConnectivity},
		{name: "clean eof", err: io.EOF, want: listener.FaultConnectivity},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: listener.FaultConnectivity},
		{name: "storage", err: fmt.Errorf("%w: disk full", sink.ErrSink), want: listener.FaultFatal},
		{name: "storage wrapping reset", err: fmt.Errorf("%w: %w", sink.ErrSink, opError(syscall.ECONNRESET)), want: listener.FaultFatal},
		{name: "cancelled", err: context.Canceled, want: listener.FaultFatal},
		{name: "read timed out", err: readError(syscall.ETIMEDOUT), want: listener.FaultConnectivity},
		{name: "dial timed out", err: opError(syscall.ETIMEDOUT), want: listener.FaultConnectivity},
		{name: "aborted", err: readError(syscall.ECONNABORTED), want: listener.FaultConnectivity},
		{name: "broken pipe", err: readError(syscall.EPIPE), want: listener.FaultConnectivity},
		{name: "host unreachable", err: opError(syscall.EHOSTUNREACH), want: listener.FaultConnectivity},
		{name: "network unreachable", err: opError(syscall.ENETUNREACH), want: listener.FaultConnectivity},
		{name: "network down", err: opError(syscall.ENETDOWN), want: listener.FaultConnectivity},
		{name: "permission denied", err: opError(syscall.EACCES), want: listener.FaultFatal},
		{name: "other", err: errors.New("tls: bad certificate"), want: listener.FaultFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listener.Classify(tt.err))
		})
	}
}

func TestFault_String(t *testing.T) {
	assert.Equal(t, "CONNECTIVITY", listener.FaultConnectivity.String())
	assert.Equal(t, "FATAL", listener.FaultFatal.String())
	assert.Equal(t, "NONE", listener.FaultNone.String())
	assert.Equal(t, "UNKNOWN", listener.Fault(99).String())
}
