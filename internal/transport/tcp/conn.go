// Package tcp provides the TCP transport for chat connections.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"github.com/omochice/toy-chat-clients/internal/transport/netctx"
)

// Conn adapts net.Conn to chat.Conn interface.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return NewConnWithReader(conn, bufio.NewReader(conn))
}

// NewConnWithReader wraps a net.Conn whose first bytes were already peeked
// into reader.
func NewConnWithReader(conn net.Conn, reader *bufio.Reader) *Conn {
	return &Conn{conn: conn, reader: reader}
}

// ReadLine implements chat.Conn.
func (c *Conn) ReadLine(ctx context.Context) ([]byte, error) {
	stop := netctx.Watch(ctx, c.conn.SetReadDeadline)
	defer stop()

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return nil, netctx.Err(ctx, err)
	}
	return line, nil
}

// Write implements chat.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	stop := netctx.Watch(ctx, c.conn.SetWriteDeadline)
	defer stop()

	if _, err := c.conn.Write(data); err != nil {
		return netctx.Err(ctx, err)
	}
	return nil
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
