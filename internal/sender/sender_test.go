package sender

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arti-chat/core/internal/frame"
	"github.com/arti-chat/core/internal/identity"
	"github.com/arti-chat/core/internal/overlay/loopback"
	"github.com/arti-chat/core/internal/wire"
)

func TestSendWritesSignedFrame(t *testing.T) {
	recipient, err := loopback.New(80)
	require.NoError(t, err)
	defer recipient.Close()

	senderClient, err := loopback.New(80)
	require.NoError(t, err)
	defer senderClient.Close()

	self, err := identity.Generate("alice.onion")
	require.NoError(t, err)

	recipientAddr, err := recipient.LocalAddress()
	require.NoError(t, err)

	s := New(senderClient, self, 80, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Send(context.Background(), recipientAddr, "hello")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	select {
	case req := <-recipient.Inbound():
		conn, err := req.Accept(ctx)
		require.NoError(t, err)
		defer conn.Close()

		raw, err := frame.ReadFrame(conn, 0)
		require.NoError(t, err)

		signed, err := wire.Unmarshal(raw)
		require.NoError(t, err)
		assert.Equal(t, "hello", signed.Payload.Text)
		assert.Equal(t, "alice.onion", signed.Payload.OnionID)
		assert.NoError(t, wire.Verify(self.PublicKeyHex(), signed))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound request")
	}

	require.NoError(t, <-errCh)
}

func TestSendConnectFailure(t *testing.T) {
	senderClient, err := loopback.New(80)
	require.NoError(t, err)
	defer senderClient.Close()

	self, err := identity.Generate("alice.onion")
	require.NoError(t, err)

	s := New(senderClient, self, 80, nil)
	err = s.Send(context.Background(), "nobody.onion", "hi")
	assert.Error(t, err)
}
