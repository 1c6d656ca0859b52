package ws

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/gobwas/ws"

	"github.com/omochice/toy-chat-clients/internal/chat"
)

// Dialer opens WebSocket chat connections to ws:// or wss:// URLs.
type Dialer struct {
	dialer ws.Dialer
}

// NewDialer creates a Dialer with gobwas defaults.
func NewDialer() *Dialer {
	return &Dialer{dialer: ws.DefaultDialer}
}

// Dial implements chat.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string) (chat.Conn, error) {
	conn, reader, _, err := d.dialer.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return NewClientConn(conn, reader), nil
}

// Upgrade performs the server side of the WebSocket handshake on a raw
// connection whose first bytes may already sit in reader.
func Upgrade(conn net.Conn, reader *bufio.Reader) (*Conn, error) {
	var rw = net.Conn(conn)
	if reader != nil {
		rw = &bufferedConn{Conn: conn, reader: reader}
	}
	if _, err := ws.Upgrade(rw); err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return NewServerConn(conn, reader), nil
}
