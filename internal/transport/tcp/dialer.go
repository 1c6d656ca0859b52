package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/omochice/toy-chat-clients/internal/chat"
)

// Dialer opens TCP chat connections.
type Dialer struct {
	dialer net.Dialer
}

// NewDialer creates a Dialer with platform default timeouts.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial implements chat.Dialer.
func (d *Dialer) Dial(ctx context.Context, address string) (chat.Conn, error) {
	conn, err := d.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return NewConn(conn), nil
}
