package ratchet

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/json"

	"github.com/cloudflare/circl/hpke"

	"github.com/arti-chat/core/internal/coreerr"
)

var handshakeSuite = hpke.NewSuite(
	hpke.KEM_X25519_HKDF_SHA256,
	hpke.KDF_HKDF_SHA256,
	hpke.AEAD_ChaCha20Poly1305,
)

var handshakeInfo = []byte("arti-chat-handshake-envelope")

// SealEnvelope wraps a Handshake in an HPKE ciphertext addressed to the
// peer's long-lived X25519 public key, so a relay observing the overlay
// stream sees only opaque bytes instead of the ephemeral public key and
// signature in the clear. This is offered as an alternative to sending
// the handshake as plain framed JSON; either transport yields the same
// Session once Complete runs.
func SealEnvelope(peerStaticPub *ecdh.PublicKey, hs Handshake) ([]byte, error) {
	plaintext, err := json.Marshal(hs)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "failed to marshal handshake", err)
	}

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	rp, err := kem.UnmarshalBinaryPublicKey(peerStaticPub.Bytes())
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "invalid peer hpke public key", err)
	}

	sender, err := handshakeSuite.NewSender(rp, handshakeInfo)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "failed to set up hpke sender", err)
	}
	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "failed to set up hpke sender", err)
	}
	ct, err := sealer.Seal(plaintext, handshakeInfo)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeCrypto, "failed to seal handshake envelope", err)
	}

	return append(enc, ct...), nil
}

// OpenEnvelope reverses SealEnvelope using the recipient's long-lived
// X25519 private key.
func OpenEnvelope(staticPriv *ecdh.PrivateKey, packet []byte) (Handshake, error) {
	const encLen = 32 // X25519 KEM encapsulated-key length
	if len(packet) < encLen {
		return Handshake{}, coreerr.New(coreerr.CodeFrame, "handshake envelope too short", nil)
	}
	enc, ct := packet[:encLen], packet[encLen:]

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	skR, err := kem.UnmarshalBinaryPrivateKey(staticPriv.Bytes())
	if err != nil {
		return Handshake{}, coreerr.New(coreerr.CodeCrypto, "invalid local hpke private key", err)
	}
	receiver, err := handshakeSuite.NewReceiver(skR, handshakeInfo)
	if err != nil {
		return Handshake{}, coreerr.New(coreerr.CodeCrypto, "failed to set up hpke receiver", err)
	}
	opener, err := receiver.Setup(enc)
	if err != nil {
		return Handshake{}, coreerr.New(coreerr.CodeCrypto, "failed to set up hpke receiver", err)
	}
	pt, err := opener.Open(ct, handshakeInfo)
	if err != nil {
		return Handshake{}, coreerr.New(coreerr.CodeCrypto, "failed to open handshake envelope", err)
	}

	var hs Handshake
	if err := json.Unmarshal(pt, &hs); err != nil {
		return Handshake{}, coreerr.New(coreerr.CodeEncoding, "failed to unmarshal handshake", err)
	}
	return hs, nil
}
