package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesValidKeypair(t *testing.T) {
	id, err := Generate("abc123onion")
	require.NoError(t, err)
	assert.Equal(t, "Me", id.Nickname)
	assert.Len(t, id.PublicKey(), ed25519.PublicKeySize)

	priv, err := hex.DecodeString(id.PrivateKeyHex())
	require.NoError(t, err)
	assert.Len(t, priv, ed25519.PrivateKeySize)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	id, err := Generate("abc123onion")
	require.NoError(t, err)

	msg := []byte("hello")
	sig := id.Sign(msg)

	err = Verify(id.PublicKeyHex(), msg, sig)
	assert.NoError(t, err)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	id, err := Generate("abc123onion")
	require.NoError(t, err)

	sig := id.Sign([]byte("hello"))
	err = Verify(id.PublicKeyHex(), []byte("goodbye"), sig)
	assert.Error(t, err)
}

func TestFromHexRoundTrip(t *testing.T) {
	id, err := Generate("abc123onion")
	require.NoError(t, err)

	reloaded, err := FromHex(id.OnionID, id.Nickname, id.PrivateKeyHex(), id.PublicKeyHex())
	require.NoError(t, err)

	sig := reloaded.Sign([]byte("ping"))
	assert.NoError(t, Verify(id.PublicKeyHex(), []byte("ping"), sig))
}

func TestFromHexRejectsWrongLength(t *testing.T) {
	_, err := FromHex("onion", "Me", "abcd", "abcd")
	assert.Error(t, err)
}

func TestFromHexRejectsInvalidHex(t *testing.T) {
	_, err := FromHex("onion", "Me", "not-hex!!", "not-hex!!")
	assert.Error(t, err)
}
