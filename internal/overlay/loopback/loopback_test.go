package loopback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectDeliversInboundRequest(t *testing.T) {
	server, err := New(80)
	require.NoError(t, err)
	defer server.Close()

	client, err := New(80)
	require.NoError(t, err)
	defer client.Close()

	serverAddr, err := server.LocalAddress()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientConn, err := client.Connect(ctx, serverAddr, 80)
	require.NoError(t, err)
	defer clientConn.Close()

	select {
	case req := <-server.Inbound():
		assert.EqualValues(t, 80, req.VirtualPort)
		conn, err := req.Accept(ctx)
		require.NoError(t, err)
		defer conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound request")
	}
}

func TestConnectUnknownAddressFails(t *testing.T) {
	client, err := New(80)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Connect(context.Background(), "nobody.onion", 80)
	assert.Error(t, err)
}
