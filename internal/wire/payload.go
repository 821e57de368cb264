// Package wire defines the on-the-wire message payload exchanged
// between peers: a small JSON envelope carrying the sender's onion
// address, the message text, a timestamp, and a detached Ed25519
// signature over the canonical JSON encoding of the payload.
package wire

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/identity"
)

// SkewTolerance bounds how far a payload's timestamp may drift from
// local time before the dispatcher logs a skew warning for it (the
// message is still persisted; its verified flag reflects the signature
// check only).
const SkewTolerance = 5 * time.Minute

// Payload is the unsigned content of a chat message.
type Payload struct {
	OnionID   string `json:"onion_id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Signed pairs a Payload with a hex-encoded detached Ed25519 signature
// over the payload's canonical JSON encoding.
type Signed struct {
	Payload   Payload `json:"payload"`
	Signature string  `json:"signature"`
}

// NewPayload builds a payload stamped with the current time.
func NewPayload(onionID, text string) Payload {
	return Payload{OnionID: onionID, Text: text, Timestamp: time.Now().Unix()}
}

// Sign serializes p canonically and signs it with id, returning the
// envelope ready to frame and send.
func Sign(id *identity.Identity, p Payload) (Signed, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Signed{}, coreerr.New(coreerr.CodeEncoding, "failed to marshal payload", err)
	}
	sig := id.Sign(raw)
	return Signed{Payload: p, Signature: hex.EncodeToString(sig)}, nil
}

// Verify checks the envelope's signature against the given hex-encoded
// public key. It re-marshals Payload rather than trusting any raw bytes
// the caller may have retained, so verification always matches exactly
// what was signed.
func Verify(publicKeyHex string, s Signed) error {
	raw, err := json.Marshal(s.Payload)
	if err != nil {
		return coreerr.New(coreerr.CodeEncoding, "failed to marshal payload", err)
	}
	sig, err := hex.DecodeString(s.Signature)
	if err != nil {
		return coreerr.New(coreerr.CodeEncoding, "signature is not valid hex", err)
	}
	return identity.Verify(publicKeyHex, raw, sig)
}

// Marshal encodes the envelope as JSON for framing.
func Marshal(s Signed) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "failed to marshal envelope", err)
	}
	return raw, nil
}

// Unmarshal decodes a framed JSON envelope.
func Unmarshal(raw []byte) (Signed, error) {
	var s Signed
	if err := json.Unmarshal(raw, &s); err != nil {
		return Signed{}, coreerr.New(coreerr.CodeEncoding, "failed to unmarshal envelope", err)
	}
	return s, nil
}

// WithinSkew reports whether p's timestamp is within SkewTolerance of
// local time.
func WithinSkew(p Payload) bool {
	now := time.Now().Unix()
	delta := now - p.Timestamp
	if delta < 0 {
		delta = -delta
	}
	return time.Duration(delta)*time.Second <= SkewTolerance
}
