package netctx_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/toy-chat-clients/internal/transport/netctx"
)

func TestWatch_CancelUnblocksRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stop := netctx.Watch(ctx, client.SetReadDeadline)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Read(make([]byte, 1))
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, netctx.Err(ctx, err), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("read was not unblocked by cancellation")
	}
}

func TestWatch_BackgroundContext(t *testing.T) {
	called := false
	stop := netctx.Watch(context.Background(), func(time.Time) error {
		called = true
		return nil
	})
	assert.True(t, stop())
	assert.False(t, called)
}

func TestErr(t *testing.T) {
	boom := errors.New("boom")
	assert.Equal(t, boom, netctx.Err(context.Background(), boom))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, netctx.Err(ctx, boom), context.Canceled)
}
