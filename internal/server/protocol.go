package server

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"os"
	"time"

	"github.com/omochice/toy-chat-clients/internal/chat"
	"github.com/omochice/toy-chat-clients/internal/transport/tcp"
	"github.com/omochice/toy-chat-clients/internal/transport/ws"
)

type protocolType int

const (
	protocolTCP protocolType = iota
	protocolWebSocket
)

// String returns the string representation of protocolType
func (p protocolType) String() string {
	if p == protocolWebSocket {
		return "websocket"
	}
	return "tcp"
}

// detectProtocol peeks at the first bytes to tell a WebSocket upgrade from a
// plain line client. Plain clients wait for the server to speak first, so a
// connection that stays silent for window is plain TCP.
func detectProtocol(conn net.Conn, window time.Duration) (protocolType, *bufio.Reader, error) {
	reader := bufio.NewReader(conn)

	if err := conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		return protocolTCP, nil, err
	}
	peek, err := reader.Peek(4)
	if resetErr := conn.SetReadDeadline(time.Time{}); resetErr != nil {
		return protocolTCP, nil, resetErr
	}

	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) && reader.Buffered() == 0 {
			// The timed-out reader keeps the deadline error; start clean.
			return protocolTCP, bufio.NewReader(conn), nil
		}
		return protocolTCP, nil, err
	}

	if bytes.HasPrefix(peek, []byte("GET ")) {
		return protocolWebSocket, reader, nil
	}
	return protocolTCP, reader, nil
}

// accept wraps a raw connection in the transport it speaks.
func accept(conn net.Conn, window time.Duration) (chat.Conn, protocolType, error) {
	proto, reader, err := detectProtocol(conn, window)
	if err != nil {
		return nil, proto, err
	}

	if proto == protocolWebSocket {
		wsConn, err := ws.Upgrade(conn, reader)
		if err != nil {
			return nil, proto, err
		}
		return wsConn, proto, nil
	}
	return tcp.NewConnWithReader(conn, reader), proto, nil
}
