// Package transport selects the TCP or WebSocket transport for a target.
package transport

import (
	"context"
	"strings"

	"github.com/omochice/toy-chat-clients/internal/chat"
	"github.com/omochice/toy-chat-clients/internal/transport/tcp"
	"github.com/omochice/toy-chat-clients/internal/transport/ws"
)

// Dialer routes ws:// and wss:// targets to the WebSocket transport and
// everything else (host:port) to TCP.
type Dialer struct {
	tcp *tcp.Dialer
	ws  *ws.Dialer
}

// NewDialer creates a Dialer for both transports.
func NewDialer() *Dialer {
	return &Dialer{
		tcp: tcp.NewDialer(),
		ws:  ws.NewDialer(),
	}
}

// Dial implements chat.Dialer.
func (d *Dialer) Dial(ctx context.Context, target string) (chat.Conn, error) {
	if IsWebSocket(target) {
		return d.ws.Dial(ctx, target)
	}
	return d.tcp.Dial(ctx, target)
}

// IsWebSocket reports whether target is a WebSocket URL.
func IsWebSocket(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://")
}
