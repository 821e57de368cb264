// Package coreerr defines the error taxonomy shared across the daemon's
// components. Each error carries a code, a message, and a wrapped
// cause; the codes name daemon-specific
// failure classes (framing, signatures, the ratchet, persistence, IPC)
// rather than a generic HTTP/gRPC-style taxonomy.
package coreerr

import (
	"errors"
	"fmt"
)

// Code identifies the class of a CoreError.
type Code string

const (
	CodeFrame       Code = "FRAME_ERROR"
	CodeEncoding    Code = "ENCODING_ERROR"
	CodeSignature   Code = "SIGNATURE_ERROR"
	CodeCrypto      Code = "CRYPTO_ERROR"
	CodePeer        Code = "PEER_ERROR"
	CodeTransport   Code = "TRANSPORT_ERROR"
	CodePersistence Code = "PERSISTENCE_ERROR"
	CodeConfig      Code = "CONFIG_ERROR"
	CodeIPC         Code = "IPC_ERROR"
)

// Sentinel errors compared with errors.Is by callers that only care
// about the kind of failure, not its formatted message.
var (
	ErrFrameTooLarge     = errors.New("frame exceeds maximum size")
	ErrFrameTruncated    = errors.New("frame closed before terminator")
	ErrSignatureInvalid  = errors.New("signature verification failed")
	ErrKeyMalformed      = errors.New("key has the wrong length")
	ErrNotFound          = errors.New("record not found")
	ErrUnknownSender     = errors.New("sender is not a known contact")
	ErrRatchetNotReady   = errors.New("ratchet session has no established chain keys")
	ErrHandshakeMismatch = errors.New("handshake transcript signature does not match")
)

// CoreError wraps a sentinel error with a Code and a human-readable
// message, the same shape as the teacher's SageError.
type CoreError struct {
	Code    Code
	Message string
	Cause   error
}

// New builds a CoreError. cause is typically one of the sentinel
// values above, but any error works; errors.Is still finds it through
// Unwrap.
func New(code Code, message string, cause error) *CoreError {
	return &CoreError{Code: code, Message: message, Cause: cause}
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, coreerr.ErrNotFound) succeed against a
// *CoreError wrapping that sentinel, without requiring the caller to
// know about the wrapping.
func (e *CoreError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}
