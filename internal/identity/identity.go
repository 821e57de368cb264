// Package identity manages the daemon's own Ed25519 signing keypair,
// tied to the onion address of its hidden service. The keypair is
// generated once, on first launch, and persisted hex-encoded through
// store.Store's InsertUser; afterwards it is loaded (GetUser) and
// validated on every launch. The private key leaves this package only
// hex-encoded through PrivateKeyHex, for persistence; other callers get
// a Sign method, not the key material.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/arti-chat/core/internal/coreerr"
)

// Identity holds the local user's onion address and Ed25519 keypair.
type Identity struct {
	OnionID    string
	Nickname   string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// Generate creates a fresh keypair for a newly seen onion address. The
// nickname defaults to "Me", matching first-launch behavior.
func Generate(onionID string) (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "failed to generate keypair", err)
	}
	return &Identity{
		OnionID:    onionID,
		Nickname:   "Me",
		privateKey: priv,
		publicKey:  pub,
	}, nil
}

// FromHex reconstructs an Identity from hex-encoded key material loaded
// from storage, validating that both keys have the lengths Ed25519
// requires.
func FromHex(onionID, nickname, privateKeyHex, publicKeyHex string) (*Identity, error) {
	privBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "private key is not valid hex", err)
	}
	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "public key is not valid hex", err)
	}

	if len(privBytes) != ed25519.PrivateKeySize || len(pubBytes) != ed25519.PublicKeySize {
		return nil, coreerr.New(coreerr.CodeCrypto, "keypair has the wrong length", coreerr.ErrKeyMalformed)
	}

	return &Identity{
		OnionID:    onionID,
		Nickname:   nickname,
		privateKey: ed25519.PrivateKey(privBytes),
		publicKey:  ed25519.PublicKey(pubBytes),
	}, nil
}

// PrivateKeyHex returns the hex-encoded private key, for persistence
// only. Callers outside identity/store should prefer Sign.
func (id *Identity) PrivateKeyHex() string {
	return hex.EncodeToString(id.privateKey)
}

// PublicKeyHex returns the hex-encoded public key.
func (id *Identity) PublicKeyHex() string {
	return hex.EncodeToString(id.publicKey)
}

// PublicKey returns the raw Ed25519 public key.
func (id *Identity) PublicKey() ed25519.PublicKey {
	return id.publicKey
}

// Sign produces a detached Ed25519 signature over message.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.privateKey, message)
}

// Verify checks a detached signature against an arbitrary public key,
// used by the dispatcher to check inbound messages against a contact's
// stored public key rather than our own.
func Verify(publicKeyHex string, message, signature []byte) error {
	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return coreerr.New(coreerr.CodeCrypto, fmt.Sprintf("public key is not valid hex: %v", err), coreerr.ErrKeyMalformed)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return coreerr.New(coreerr.CodeCrypto, "public key has the wrong length", coreerr.ErrKeyMalformed)
	}
	if !ed25519.Verify(ed25519.PublicKey(pubBytes), message, signature) {
		return coreerr.New(coreerr.CodeSignature, "signature verification failed", coreerr.ErrSignatureInvalid)
	}
	return nil
}

// String implements fmt.Stringer for logging without exposing key
// material.
func (id *Identity) String() string {
	return fmt.Sprintf("identity{onion_id=%s, nickname=%s}", id.OnionID, id.Nickname)
}
