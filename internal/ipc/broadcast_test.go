package ipc

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arti-chat/core/internal/logger"
)

// TestHubBroadcastDropsFullQueueSink is spec §8 property 7 (sink
// liveness): a subscriber whose queue is already full gets pruned by
// broadcast rather than blocking delivery to everyone else. The
// writeLoop goroutine is never started here so the queue fills
// deterministically.
func TestHubBroadcastDropsFullQueueSink(t *testing.T) {
	hub := newBroadcastHub(logger.GetDefaultLogger())

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	s := newSink(serverConn)

	hub.mu.Lock()
	hub.sinks[s.id] = s
	hub.mu.Unlock()

	for i := 0; i < sinkQueueDepth; i++ {
		assert.True(t, s.send("filler"))
	}
	assert.False(t, s.send("overflow"))

	hub.broadcast("one more")

	hub.mu.Lock()
	_, stillPresent := hub.sinks[s.id]
	hub.mu.Unlock()
	assert.False(t, stillPresent)
}

// TestHubBroadcastReachesEveryLiveSink confirms fan-out never narrows
// to a single "latest" sink (the REDESIGN FLAG this module resolves).
func TestHubBroadcastReachesEveryLiveSink(t *testing.T) {
	hub := newBroadcastHub(logger.GetDefaultLogger())

	var sinks []*sink
	var conns []net.Conn
	for i := 0; i < 3; i++ {
		serverConn, clientConn := net.Pipe()
		conns = append(conns, clientConn)
		s := newSink(serverConn)
		hub.mu.Lock()
		hub.sinks[s.id] = s
		hub.mu.Unlock()
		sinks = append(sinks, s)
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	hub.broadcast("hello")

	for _, s := range sinks {
		select {
		case line := <-s.queue:
			assert.Equal(t, "hello", line)
		default:
			t.Fatal("sink did not receive broadcast")
		}
	}
}

func TestSinkDropClosesConnection(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	s := newSink(serverConn)

	s.drop()
	s.drop() // idempotent

	_, err := serverConn.Write([]byte("x"))
	require.Error(t, err)
}
