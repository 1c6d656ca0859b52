// Package chat provides the connection abstraction shared by the listener,
// the writer and the development server.
package chat

import "context"

// Conn abstracts a line-oriented bidirectional connection for both TCP and
// WebSocket transports.
type Conn interface {
	// ReadLine reads a single line including its trailing newline.
	// An unterminated final fragment is returned before io.EOF.
	// Returns io.EOF when the peer closed the connection.
	ReadLine(ctx context.Context) ([]byte, error)

	// Write sends data as-is; callers frame lines themselves.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Dialer opens connections to a chat server.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, address string) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, address string) (Conn, error) {
	return f(ctx, address)
}
