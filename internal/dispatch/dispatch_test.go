package dispatch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arti-chat/core/internal/frame"
	"github.com/arti-chat/core/internal/identity"
	"github.com/arti-chat/core/internal/overlay/loopback"
	"github.com/arti-chat/core/internal/store"
	"github.com/arti-chat/core/internal/wire"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestDispatcherPersistsAndBroadcastsKnownSender is scenario S1 from
// spec §8: a known contact's signed frame is persisted verified=true
// and a reload event is broadcast.
func TestDispatcherPersistsAndBroadcastsKnownSender(t *testing.T) {
	db := newTestStore(t)

	alice, err := identity.Generate("aaaa.onion")
	require.NoError(t, err)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: alice.OnionID, Nickname: "Alice", PublicKey: alice.PublicKeyHex()}))

	bobClient, err := loopback.New(80)
	require.NoError(t, err)
	defer bobClient.Close()

	events := make(chan InboundEvent, 1)
	d := New(bobClient, db, 80, events, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	aliceClient, err := loopback.New(80)
	require.NoError(t, err)
	defer aliceClient.Close()

	bobAddr, err := bobClient.LocalAddress()
	require.NoError(t, err)

	conn, err := aliceClient.Connect(ctx, bobAddr, 80)
	require.NoError(t, err)

	payload := wire.Payload{OnionID: alice.OnionID, Text: "hi", Timestamp: 1_700_000_000}
	signed, err := wire.Sign(alice, payload)
	require.NoError(t, err)
	raw, err := wire.Marshal(signed)
	require.NoError(t, err)

	require.NoError(t, frame.WriteFrame(conn, raw))

	select {
	case ev := <-events:
		assert.Equal(t, alice.OnionID, ev.OnionID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound event")
	}

	msgs, err := db.MessagesWith(alice.OnionID, 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.True(t, msgs[0].Verified)
	assert.Equal(t, store.Inbound, msgs[0].Direction)
}

// TestDispatcherDropsUnknownSender is scenario S2: an unknown sender's
// frame is dropped with no row inserted and no broadcast.
func TestDispatcherDropsUnknownSender(t *testing.T) {
	db := newTestStore(t)

	mallory, err := identity.Generate("mmmm.onion")
	require.NoError(t, err)

	bobClient, err := loopback.New(80)
	require.NoError(t, err)
	defer bobClient.Close()

	events := make(chan InboundEvent, 1)
	d := New(bobClient, db, 80, events, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	malloryClient, err := loopback.New(80)
	require.NoError(t, err)
	defer malloryClient.Close()

	bobAddr, err := bobClient.LocalAddress()
	require.NoError(t, err)

	conn, err := malloryClient.Connect(ctx, bobAddr, 80)
	require.NoError(t, err)

	signed, err := wire.Sign(mallory, wire.NewPayload(mallory.OnionID, "pwned"))
	require.NoError(t, err)
	raw, err := wire.Marshal(signed)
	require.NoError(t, err)
	require.NoError(t, frame.WriteFrame(conn, raw))

	select {
	case <-events:
		t.Fatal("unexpected broadcast for unknown sender")
	case <-time.After(300 * time.Millisecond):
	}

	_, err = db.GetContact(mallory.OnionID)
	assert.Error(t, err)

	msgs, err := db.MessagesWith(mallory.OnionID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
