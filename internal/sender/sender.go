// Package sender implements the outbound send path (spec §4.G): open
// a stream to the peer's hidden service on the configured virtual
// port, sign and frame the payload, write it, and close. It reports
// success or failure; the caller decides whether to mark the message
// delivered.
package sender

import (
	"context"
	"time"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/frame"
	"github.com/arti-chat/core/internal/identity"
	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
	"github.com/arti-chat/core/internal/overlay"
	"github.com/arti-chat/core/internal/wire"
)

// Sender holds the dependencies needed to push one signed payload to a
// peer: the overlay client to dial out on, and the local identity to
// sign with.
type Sender struct {
	client      overlay.Client
	self        *identity.Identity
	virtualPort uint16
	log         logger.Logger
}

// New builds a Sender bound to the given overlay client, local
// identity, and virtual port (spec §9: the port filter is a
// configurable constant, not hardcoded to 80).
func New(client overlay.Client, self *identity.Identity, virtualPort uint16, log logger.Logger) *Sender {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Sender{client: client, self: self, virtualPort: virtualPort, log: log}
}

// Send opens a new stream to peerOnionID, signs {sender_id, text, now},
// frames and writes it, then closes the stream. Exactly one of
// ConnectFailed/WriteFailed/SignFailed classes (spec §4.G) wraps the
// returned error, via coreerr's CodeTransport/CodeSignature; a failure
// to marshal the signed envelope is reported as CodeEncoding.
func (s *Sender) Send(ctx context.Context, peerOnionID, text string) error {
	start := time.Now()
	err := s.send(ctx, peerOnionID, text)
	metrics.OutboundSendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Warn("outbound send failed", logger.String("onion_id", peerOnionID), logger.Error(err))
	} else {
		s.log.Info("outbound send succeeded", logger.String("onion_id", peerOnionID))
	}
	return err
}

func (s *Sender) send(ctx context.Context, peerOnionID, text string) error {
	conn, err := s.client.Connect(ctx, peerOnionID, s.virtualPort)
	if err != nil {
		return coreerr.New(coreerr.CodeTransport, "failed to connect to peer", err)
	}
	defer conn.Close()

	payload := wire.NewPayload(s.self.OnionID, text)
	signed, err := wire.Sign(s.self, payload)
	if err != nil {
		return coreerr.New(coreerr.CodeSignature, "failed to sign payload", err)
	}

	raw, err := wire.Marshal(signed)
	if err != nil {
		return coreerr.New(coreerr.CodeEncoding, "failed to marshal payload", err)
	}

	if err := frame.WriteFrame(conn, raw); err != nil {
		return coreerr.New(coreerr.CodeTransport, "failed to write frame", err)
	}
	return nil
}
