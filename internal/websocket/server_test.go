package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yegors/co-pilot/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func TestServerBroadcastFanOut(t *testing.T) {
	s := NewServer(testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	client := &Client{ID: "c1", server: s, send: make(chan []byte, 4)}
	s.register <- client
	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	s.Broadcast(map[string]string{"type": "state_update"})

	select {
	case data := <-client.send:
		require.Contains(t, string(data), "state_update")
	case <-time.After(time.Second):
		t.Fatal("broadcast not delivered")
	}

	s.dropClient(client)
	require.Eventually(t, func() bool { return s.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestServerShutdownReleasesClients(t *testing.T) {
	s := NewServer(testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	// A read pump that notices its connection closed only after the hub has
	// stopped must still be able to hand the client back without blocking.
	released := make(chan struct{})
	go func() {
		s.dropClient(&Client{ID: "stale", server: s, send: make(chan []byte, 1)})
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("dropClient blocked after hub shutdown")
	}
}
