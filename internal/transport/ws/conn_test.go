package ws_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/toy-chat-clients/internal/chat"
	"github.com/omochice/toy-chat-clients/internal/transport/ws"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ chat.Conn = (*ws.Conn)(nil)
	var _ chat.Dialer = (*ws.Dialer)(nil)
}

// startUpgradeServer accepts one WebSocket client and hands the server side
// of the connection to serve.
func startUpgradeServer(t *testing.T, serve func(conn *ws.Conn)) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		raw, err := listener.Accept()
		if err != nil {
			return
		}
		conn, err := ws.Upgrade(raw, nil)
		if err != nil {
			raw.Close()
			return
		}
		serve(conn)
	}()

	return "ws://" + listener.Addr().String() + "/"
}

func TestConn_ReadLine_SplitsFrames(t *testing.T) {
	url := startUpgradeServer(t, func(conn *ws.Conn) {
		defer conn.Close()
		ctx := context.Background()
		conn.Write(ctx, []byte("hello\nwor"))
		conn.Write(ctx, []byte("ld\n"))
		conn.Write(ctx, []byte("tail"))
	})

	conn, err := ws.NewDialer().Dial(context.Background(), url)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	for _, want := range []string{"hello\n", "world\n", "tail"} {
		line, err := conn.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(line))
	}

	_, err = conn.ReadLine(ctx)
	assert.Error(t, err, "connection should be closed after the close frame")
}

func TestConn_Write(t *testing.T) {
	received := make(chan string, 1)
	url := startUpgradeServer(t, func(conn *ws.Conn) {
		defer conn.Close()
		line, err := conn.ReadLine(context.Background())
		if err != nil {
			received <- err.Error()
			return
		}
		received <- string(line)
	})

	conn, err := ws.NewDialer().Dial(context.Background(), url)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Write(context.Background(), []byte("T1\n")))

	select {
	case got := <-received:
		assert.Equal(t, "T1\n", got)
	case <-time.After(time.Second):
		t.Fatal("server did not receive the line")
	}
}

func TestConn_ReadLine_Cancel(t *testing.T) {
	url := startUpgradeServer(t, func(conn *ws.Conn) {
		time.Sleep(time.Second)
		conn.Close()
	})

	conn, err := ws.NewDialer().Dial(context.Background(), url)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = conn.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialer_Refused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	_, err = ws.NewDialer().Dial(context.Background(), "ws://"+addr+"/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestUpgrade_RejectsGarbage(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte("not http\r\n\r\n"))
		io.Copy(io.Discard, client)
	}()

	_, err := ws.Upgrade(server, nil)
	assert.Error(t, err)
}
