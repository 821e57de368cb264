package rpc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arti-chat/core/internal/identity"
	"github.com/arti-chat/core/internal/overlay/loopback"
	"github.com/arti-chat/core/internal/store"
)

type fakeSender struct {
	mu      sync.Mutex
	calls   []string
	succeed bool
}

func (f *fakeSender) Send(ctx context.Context, peerOnionID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, peerOnionID)
	if !f.succeed {
		return assert.AnError
	}
	return nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	reloaded []string
}

func (f *fakeBroadcaster) BroadcastReload(onionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloaded = append(f.reloaded, onionID)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRouter(t *testing.T, db *store.Store, sender Sender, broadcaster Broadcaster) (*Router, *identity.Identity) {
	t.Helper()
	self, err := identity.Generate("aaaa.onion")
	require.NoError(t, err)

	client, err := loopback.New(80)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	focused := &atomic.Bool{}
	return New(db, self, sender, client, broadcaster, nil, focused, 80, nil), self
}

func handleJSON(t *testing.T, r *Router, req interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)
	if reply == nil {
		return nil
	}
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(reply, &out))
	return out
}

func TestRouterAddAndLoadContacts(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	out := handleJSON(t, r, map[string]interface{}{
		"cmd": CmdAddContact, "onion_id": "bbbb.onion", "nickname": "Bob", "public_key": "deadbeef",
	})
	require.Equal(t, true, out["success"])

	raw, err := json.Marshal(map[string]interface{}{"cmd": CmdLoadContacts})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)
	var contacts []contactView
	require.NoError(t, json.Unmarshal(reply, &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "bbbb.onion", contacts[0].OnionID)
	assert.Equal(t, int64(0), contacts[0].UnreadCount)
}

func TestRouterUpdateContact(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "old"}))

	newNick := "Bobby"
	out := handleJSON(t, r, map[string]interface{}{
		"cmd": CmdUpdateContact, "onion_id": "bbbb.onion", "nickname": newNick,
	})
	require.Equal(t, true, out["success"])

	c, err := db.GetContact("bbbb.onion")
	require.NoError(t, err)
	assert.Equal(t, "Bobby", c.Nickname)
}

// TestRouterLoadChat exercises LoadChat against a seeded conversation.
func TestRouterLoadChat(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "pub"}))
	_, err := db.InsertMessage(store.Message{ContactID: "bbbb.onion", Body: "hi", Timestamp: 1700000000, Direction: store.Inbound, Verified: true})
	require.NoError(t, err)

	env, err := json.Marshal(map[string]interface{}{"cmd": CmdLoadChat, "onion_id": "bbbb.onion"})
	require.NoError(t, err)

	reply := r.Handle(context.Background(), env)
	var msgs []messageView
	require.NoError(t, json.Unmarshal(reply, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, "inbound", msgs[0].Direction)
}

// TestRouterSendMessageSuccess is scenario S3 from spec §8: SendMessage
// persists then delivers then broadcasts, producing no reply line.
func TestRouterSendMessageSuccess(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "pub"}))
	sender := &fakeSender{succeed: true}
	broadcaster := &fakeBroadcaster{}
	r, _ := newTestRouter(t, db, sender, broadcaster)

	raw, err := json.Marshal(map[string]interface{}{"cmd": CmdSendMessage, "to": "bbbb.onion", "text": "hello"})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)
	assert.Nil(t, reply)

	assert.Contains(t, sender.calls, "bbbb.onion")
	assert.Contains(t, broadcaster.reloaded, "bbbb.onion")

	msgs, err := db.MessagesWith("bbbb.onion", 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Delivered)
}

func TestRouterSendMessageFailureLeavesUndelivered(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "pub"}))
	sender := &fakeSender{succeed: false}
	r, _ := newTestRouter(t, db, sender, nil)

	raw, err := json.Marshal(map[string]interface{}{"cmd": CmdSendMessage, "to": "bbbb.onion", "text": "hello"})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)
	assert.Nil(t, reply)

	msgs, err := db.MessagesWith("bbbb.onion", 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Delivered)
}

// TestRouterLoadUser exercises LoadUser and confirms the private key
// never appears in the reply.
func TestRouterLoadUser(t *testing.T) {
	db := newTestStore(t)
	r, self := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertUser(store.User{
		OnionID: self.OnionID, Nickname: "Me", PublicKey: self.PublicKeyHex(), PrivateKey: self.PrivateKeyHex(),
	}))

	raw, err := json.Marshal(map[string]interface{}{"cmd": CmdLoadUser})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(reply, &payload))
	assert.Equal(t, self.OnionID, payload["onion_id"])
	_, hasPrivateKey := payload["private_key"]
	assert.False(t, hasPrivateKey)
}

func TestRouterUpdateUser(t *testing.T) {
	db := newTestStore(t)
	r, self := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertUser(store.User{OnionID: self.OnionID, Nickname: "Me", PublicKey: "old", PrivateKey: "old"}))

	newPub := "newpub"
	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdUpdateUser, "public_key": newPub})
	require.Equal(t, true, out["success"])

	u, err := db.GetUser()
	require.NoError(t, err)
	assert.Equal(t, "newpub", u.PublicKey)
}

// TestRouterDeleteContactCascades is scenario S6: DeleteContact removes
// the contact and its messages.
func TestRouterDeleteContactCascades(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "pub"}))
	_, err := db.InsertMessage(store.Message{ContactID: "bbbb.onion", Body: "hi", Timestamp: 1, Direction: store.Inbound})
	require.NoError(t, err)

	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdDeleteContact, "onion_id": "bbbb.onion"})
	require.Equal(t, true, out["success"])

	_, err = db.GetContact("bbbb.onion")
	assert.Error(t, err)

	msgs, err := db.MessagesWith("bbbb.onion", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRouterDeleteContactMessages(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "pub"}))
	_, err := db.InsertMessage(store.Message{ContactID: "bbbb.onion", Body: "hi", Timestamp: 1, Direction: store.Inbound})
	require.NoError(t, err)

	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdDeleteContactMessages, "onion_id": "bbbb.onion"})
	require.Equal(t, true, out["success"])

	msgs, err := db.MessagesWith("bbbb.onion", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = db.GetContact("bbbb.onion")
	assert.NoError(t, err)
}

func TestRouterDeleteAllContacts(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "pub"}))
	require.NoError(t, db.InsertContact(store.Contact{OnionID: "cccc.onion", Nickname: "Carl", PublicKey: "pub2"}))

	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdDeleteAllContacts})
	require.Equal(t, true, out["success"])

	contacts, err := db.ListContacts()
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

// TestRouterConfigRoundtrip is scenario S5: SetConfigValue then
// GetConfigValue returns the value just set.
func TestRouterConfigRoundtrip(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	setRaw, err := json.Marshal(map[string]interface{}{"cmd": CmdSetConfigValue, "key": "enable_notifications", "value": "true"})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), setRaw)
	assert.Nil(t, reply)

	getRaw, err := json.Marshal(map[string]interface{}{"cmd": CmdGetConfigValue, "key": "enable_notifications"})
	require.NoError(t, err)
	out := r.Handle(context.Background(), getRaw)
	var payload struct {
		Value *string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(out, &payload))
	require.NotNil(t, payload.Value)
	assert.Equal(t, "true", *payload.Value)
}

func TestRouterGetConfigValueUnknownKey(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	raw, err := json.Marshal(map[string]interface{}{"cmd": CmdGetConfigValue, "key": "nonexistent"})
	require.NoError(t, err)
	out := r.Handle(context.Background(), raw)
	var payload struct {
		Value *string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(out, &payload))
	assert.Nil(t, payload.Value)
}

func TestRouterPingDaemon(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdPingDaemon})
	assert.Equal(t, true, out["success"])
}

func TestRouterPingHiddenServiceReachesSelf(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdPingHiddenService})
	assert.Equal(t, true, out["success"])
}

func TestRouterResetTorCircuit(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	out := handleJSON(t, r, map[string]interface{}{"cmd": CmdResetTorCircuit})
	assert.Equal(t, true, out["success"])
}

func TestRouterSendAppFocusStateUpdatesFlag(t *testing.T) {
	db := newTestStore(t)
	self, err := identity.Generate("aaaa.onion")
	require.NoError(t, err)
	client, err := loopback.New(80)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	focused := &atomic.Bool{}
	r := New(db, self, nil, client, nil, nil, focused, 80, nil)

	raw, err := json.Marshal(map[string]interface{}{"cmd": CmdSendAppFocusState, "focussed": true})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)
	assert.Nil(t, reply)
	assert.True(t, focused.Load())
}

func TestRouterUnknownCommandReturnsError(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	raw, err := json.Marshal(map[string]interface{}{"cmd": "NotACommand"})
	require.NoError(t, err)
	reply := r.Handle(context.Background(), raw)
	var out errorReply
	require.NoError(t, json.Unmarshal(reply, &out))
	assert.NotEmpty(t, out.Error)
}

func TestRouterMalformedLineReturnsError(t *testing.T) {
	db := newTestStore(t)
	r, _ := newTestRouter(t, db, nil, nil)

	reply := r.Handle(context.Background(), []byte("not json"))
	var out errorReply
	require.NoError(t, json.Unmarshal(reply, &out))
	assert.NotEmpty(t, out.Error)
}
