// Package ratchet implements a single symmetric ratchet providing
// forward secrecy for a one-to-one chat session: an X25519 handshake
// with Ed25519-signed transcripts establishes two independent 32-byte
// chain keys (one per direction), and every message advances its
// chain's key via HKDF before being sealed with ChaCha20-Poly1305.
//
// Unlike the scheme this was ported from, Open only advances the
// receive chain after the AEAD open succeeds. Advancing unconditionally
// would let a single corrupted or replayed packet desynchronize the
// chain and silently drop every message that follows it.
package ratchet

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/identity"
)

// Handshake is the signed tuple exchanged to establish a session.
type Handshake struct {
	From            string `json:"from"`
	To              string `json:"to"`
	EphemeralPubKey []byte `json:"ephemeral_pub_key"`
	Signature       string `json:"signature"`
}

func transcript(from, to string, ephemeralPub []byte) []byte {
	t := make([]byte, 0, len(from)+len(to)+len(ephemeralPub)+2)
	t = append(t, []byte(from)...)
	t = append(t, 0)
	t = append(t, []byte(to)...)
	t = append(t, 0)
	t = append(t, ephemeralPub...)
	return t
}

// Initiate starts a handshake as the sending side, returning the
// message to send and the ephemeral private key to keep until Complete.
func Initiate(self *identity.Identity, peerOnionID string) (Handshake, *ecdh.PrivateKey, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return Handshake{}, nil, coreerr.New(coreerr.CodeCrypto, "failed to generate ephemeral key", err)
	}
	pub := priv.PublicKey().Bytes()
	sig := self.Sign(transcript(self.OnionID, peerOnionID, pub))

	return Handshake{
		From:            self.OnionID,
		To:              peerOnionID,
		EphemeralPubKey: pub,
		Signature:       hex.EncodeToString(sig),
	}, priv, nil
}

// Accept verifies an incoming handshake against the sender's known
// public key and builds the reply handshake plus our own ephemeral key.
func Accept(self *identity.Identity, peerPublicKeyHex string, incoming Handshake) (Handshake, *ecdh.PrivateKey, error) {
	if incoming.To != self.OnionID {
		return Handshake{}, nil, coreerr.New(coreerr.CodePeer, "handshake addressed to a different onion id", nil)
	}

	sig, err := hex.DecodeString(incoming.Signature)
	if err != nil {
		return Handshake{}, nil, coreerr.New(coreerr.CodeEncoding, "signature is not valid hex", err)
	}
	t := transcript(incoming.From, incoming.To, incoming.EphemeralPubKey)
	if err := identity.Verify(peerPublicKeyHex, t, sig); err != nil {
		return Handshake{}, nil, coreerr.New(coreerr.CodeSignature, "handshake signature invalid", coreerr.ErrHandshakeMismatch)
	}

	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return Handshake{}, nil, coreerr.New(coreerr.CodeCrypto, "failed to generate ephemeral key", err)
	}
	pub := priv.PublicKey().Bytes()
	replyTranscript := transcript(self.OnionID, incoming.From, pub)
	replySig := self.Sign(replyTranscript)

	return Handshake{
		From:            self.OnionID,
		To:              incoming.From,
		EphemeralPubKey: pub,
		Signature:       hex.EncodeToString(replySig),
	}, priv, nil
}

// Complete verifies the peer's reply and derives the ratchet's two
// chain keys from the X25519 shared secret. isInitiator decides which
// of the two HKDF outputs becomes the send chain versus the receive
// chain, so that each side's send chain matches the other's receive
// chain.
func Complete(self *identity.Identity, peerPublicKeyHex string, reply Handshake, ephemeralPriv *ecdh.PrivateKey, isInitiator bool) (*Session, error) {
	if reply.To != self.OnionID {
		return nil, coreerr.New(coreerr.CodePeer, "handshake reply addressed to a different onion id", nil)
	}

	sig, err := hex.DecodeString(reply.Signature)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "signature is not valid hex", err)
	}
	t := transcript(reply.From, reply.To, reply.EphemeralPubKey)
	if err := identity.Verify(peerPublicKeyHex, t, sig); err != nil {
		return nil, coreerr.New(coreerr.CodeSignature, "handshake reply signature invalid", coreerr.ErrHandshakeMismatch)
	}

	peerPub, err := ecdh.X25519().NewPublicKey(reply.EphemeralPubKey)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "invalid ephemeral public key", err)
	}
	shared, err := ephemeralPriv.ECDH(peerPub)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "ECDH failed", err)
	}

	var a, b [32]byte
	h := hkdf.New(sha256.New, shared, nil, []byte("arti-chat-ratchet-init"))
	if _, err := io.ReadFull(h, a[:]); err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "hkdf expand failed", err)
	}
	if _, err := io.ReadFull(h, b[:]); err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "hkdf expand failed", err)
	}

	sendChain, recvChain := b, a
	if isInitiator {
		sendChain, recvChain = a, b
	}

	return &Session{sendChain: sendChain, recvChain: recvChain}, nil
}

// nextStep derives the message key and the next chain key from the
// current chain key via two independent HKDF expansions of the same
// pseudorandom key.
func nextStep(chain [32]byte) (msgKey, next [32]byte) {
	h := hkdf.New(sha256.New, chain[:], nil, []byte("arti-chat-ratchet-step"))
	io.ReadFull(h, msgKey[:])
	io.ReadFull(h, next[:])
	return
}

// Sealed is a ratchet-encrypted message ready to frame.
type Sealed struct {
	From  string `json:"from"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// Session holds a live ratchet's two chain keys and is safe for use by
// one goroutine at a time; Manager serializes access per contact.
type Session struct {
	sendChain [32]byte
	recvChain [32]byte
}

// Seal encrypts plaintext with the current send-chain key and advances
// the send chain.
func (s *Session) Seal(selfOnionID string, plaintext []byte) (Sealed, error) {
	msgKey, next := nextStep(s.sendChain)
	s.sendChain = next

	aead, err := chacha20poly1305.New(msgKey[:])
	if err != nil {
		return Sealed{}, coreerr.New(coreerr.CodeCrypto, "failed to build aead", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Sealed{}, coreerr.New(coreerr.CodeCrypto, "failed to generate nonce", err)
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)
	return Sealed{From: selfOnionID, Nonce: nonce, Data: ct}, nil
}

// Open decrypts msg with the current receive-chain key. The receive
// chain only advances when decryption succeeds; a forged or replayed
// packet is rejected with the chain left exactly where it was, so the
// next legitimate message still decrypts.
func (s *Session) Open(msg Sealed) ([]byte, error) {
	msgKey, next := nextStep(s.recvChain)

	aead, err := chacha20poly1305.New(msgKey[:])
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "failed to build aead", err)
	}
	pt, err := aead.Open(nil, msg.Nonce, msg.Data, nil)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "message decryption failed", err)
	}

	s.recvChain = next
	return pt, nil
}

// Zero overwrites both chain keys, matching the zeroize-on-drop
// behavior of the ported implementation.
func (s *Session) Zero() {
	var zero [32]byte
	subtle.ConstantTimeCopy(1, s.sendChain[:], zero[:])
	subtle.ConstantTimeCopy(1, s.recvChain[:], zero[:])
}

