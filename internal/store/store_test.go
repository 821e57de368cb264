package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigDefaultsSeeded(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.ConfigGet("enable_notifications")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok, err = s.ConfigGet("no_such_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfigSetGet(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ConfigSet("enable_notifications", "false"))
	got, err := s.ConfigGetBool("enable_notifications")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUserInsertAndGet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser()
	assert.Error(t, err)

	require.NoError(t, s.InsertUser(User{OnionID: "aaaa.onion", Nickname: "Me", PublicKey: "pub", PrivateKey: "priv"}))

	u, err := s.GetUser()
	require.NoError(t, err)
	assert.Equal(t, "aaaa.onion", u.OnionID)
	assert.Equal(t, "Me", u.Nickname)
}

func TestUserUpdatePartial(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertUser(User{OnionID: "aaaa.onion", Nickname: "Me", PublicKey: "pub", PrivateKey: "priv"}))

	newPub := "newpub"
	require.NoError(t, s.UpdateUser(&newPub, nil))

	u, err := s.GetUser()
	require.NoError(t, err)
	assert.Equal(t, "newpub", u.PublicKey)
	assert.Equal(t, "priv", u.PrivateKey)
}

func TestContactCRUD(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertContact(Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "bobpub"}))

	c, err := s.GetContact("bbbb.onion")
	require.NoError(t, err)
	assert.Equal(t, "Bob", c.Nickname)

	nick := "Bobby"
	require.NoError(t, s.UpdateContact("bbbb.onion", &nick, nil))
	c, err = s.GetContact("bbbb.onion")
	require.NoError(t, err)
	assert.Equal(t, "Bobby", c.Nickname)

	list, err := s.ListContacts()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCascadeDeleteRemovesMessages(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertContact(Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "bobpub"}))

	_, err := s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "hi", Timestamp: time.Now().Unix(), Direction: Inbound, Verified: true})
	require.NoError(t, err)

	require.NoError(t, s.DeleteContact("bbbb.onion"))

	msgs, err := s.MessagesWith("bbbb.onion", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = s.GetContact("bbbb.onion")
	assert.Error(t, err)
}

func TestUnreadCountAndMessagesWithClearsIt(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertContact(Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "bobpub"}))

	now := time.Now().Unix()
	_, err := s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "one", Timestamp: now - 10, Direction: Inbound, Verified: true})
	require.NoError(t, err)
	_, err = s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "two", Timestamp: now - 5, Direction: Inbound, Verified: true})
	require.NoError(t, err)

	rows, err := s.ContactsWithUnread()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0].UnreadCount)

	_, err = s.MessagesWith("bbbb.onion", 0, 10)
	require.NoError(t, err)

	rows, err = s.ContactsWithUnread()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 0, rows[0].UnreadCount)
}

func TestFailedOutboundMessagesWindow(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertContact(Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "bobpub"}))

	now := time.Now().Unix()
	tooNewID, err := s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "too new", Timestamp: now - 5, Direction: Outbound})
	require.NoError(t, err)
	eligibleID, err := s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "eligible", Timestamp: now - 45, Direction: Outbound})
	require.NoError(t, err)
	tooOldID, err := s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "too old", Timestamp: now - 400, Direction: Outbound})
	require.NoError(t, err)

	msgs, err := s.FailedOutboundMessages(30*time.Second, 300*time.Second)
	require.NoError(t, err)

	ids := map[int64]bool{}
	for _, m := range msgs {
		ids[m.ID] = true
	}
	assert.False(t, ids[tooNewID])
	assert.True(t, ids[eligibleID])
	assert.False(t, ids[tooOldID])
}

func TestMarkDeliveredRemovesFromRetryWindow(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertContact(Contact{OnionID: "bbbb.onion", Nickname: "Bob", PublicKey: "bobpub"}))

	now := time.Now().Unix()
	id, err := s.InsertMessage(Message{ContactID: "bbbb.onion", Body: "eligible", Timestamp: now - 45, Direction: Outbound})
	require.NoError(t, err)

	require.NoError(t, s.MarkDelivered(id))

	msgs, err := s.FailedOutboundMessages(30*time.Second, 300*time.Second)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
