// Package ws provides the WebSocket transport for chat connections using
// gobwas/ws. Each text frame carries one or more protocol lines.
package ws

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/toy-chat-clients/internal/transport/netctx"
)

// Conn adapts a WebSocket net.Conn to chat.Conn interface.
type Conn struct {
	conn    net.Conn
	rw      io.ReadWriter
	state   ws.State
	pending []byte
	readMu  sync.Mutex
	writeMu sync.Mutex
}

// NewClientConn wraps the client side of an established WebSocket.
// reader holds bytes the server sent right after the handshake and may be nil.
func NewClientConn(conn net.Conn, reader *bufio.Reader) *Conn {
	return newConn(conn, reader, ws.StateClientSide)
}

// NewServerConn wraps the server side of an upgraded WebSocket.
func NewServerConn(conn net.Conn, reader *bufio.Reader) *Conn {
	return newConn(conn, reader, ws.StateServerSide)
}

func newConn(conn net.Conn, reader *bufio.Reader, state ws.State) *Conn {
	var rw io.ReadWriter = conn
	if reader != nil {
		rw = &bufferedConn{Conn: conn, reader: reader}
	}
	return &Conn{conn: conn, rw: rw, state: state}
}

// ReadLine implements chat.Conn.
// A close frame from the peer is reported as io.EOF.
func (c *Conn) ReadLine(ctx context.Context) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	stop := netctx.Watch(ctx, c.conn.SetReadDeadline)
	defer stop()

	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			return c.take(i + 1), nil
		}

		data, _, err := wsutil.ReadData(c.rw, c.state)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				err = io.EOF
			}
			if errors.Is(err, io.EOF) && len(c.pending) > 0 {
				return c.take(len(c.pending)), nil
			}
			return nil, netctx.Err(ctx, err)
		}
		c.pending = append(c.pending, data...)
	}
}

// Write implements chat.Conn, sending data as one text frame.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	stop := netctx.Watch(ctx, c.conn.SetWriteDeadline)
	defer stop()

	if err := wsutil.WriteMessage(c.conn, c.state, ws.OpText, data); err != nil {
		return netctx.Err(ctx, err)
	}
	return nil
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = wsutil.WriteMessage(c.conn, c.state, ws.OpClose, nil)
	c.writeMu.Unlock()
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Conn) take(n int) []byte {
	line := make([]byte, n)
	copy(line, c.pending[:n])
	c.pending = c.pending[n:]
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return line
}

// bufferedConn preserves bytes already buffered by a handshake or a
// protocol peek.
type bufferedConn struct {
	net.Conn
	reader *bufio.Reader
}

func (bc *bufferedConn) Read(p []byte) (int, error) {
	return bc.reader.Read(p)
}
