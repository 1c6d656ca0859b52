package listener

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/omochice/toy-chat-clients/internal/sink"
)

// Fault classifies why a connection ended.
type Fault int

const (
	// FaultNone is the classification of a nil error.
	FaultNone Fault = iota
	// FaultConnectivity covers name resolution failures, refused, reset or
	// timed out connections, unreachable hosts and a peer closing the stream.
	// The listener retries these.
	FaultConnectivity
	// FaultFatal is everything else, storage faults included. The listener
	// stops and returns the error.
	FaultFatal
)

// String returns the string representation of Fault
func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "NONE"
	case FaultConnectivity:
		return "CONNECTIVITY"
	case FaultFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Classify decides whether err is retried by the reconnect loop. Storage
// faults are fatal even when they wrap a network error.
func Classify(err error) Fault {
	if err == nil {
		return FaultNone
	}

	switch {
	case errors.Is(err, sink.ErrSink):
		return FaultFatal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FaultFatal
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return FaultConnectivity
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EPIPE):
		return FaultConnectivity
	case errors.Is(err, syscall.ETIMEDOUT):
		// Keepalive probes going unanswered end the read this way.
		return FaultConnectivity
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.ENETDOWN):
		return FaultConnectivity
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FaultConnectivity
	}
	return FaultFatal
}
