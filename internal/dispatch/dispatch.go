// Package dispatch implements the peer dispatcher (spec §4.F): it
// holds the exclusive inbound-rendezvous-request stream from the
// overlay client and spawns one independent handler per request. A
// panic or error in a single handler must never take down the
// dispatcher loop (spec §5 failure isolation), so every handler runs
// with its own recover.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/frame"
	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
	"github.com/arti-chat/core/internal/overlay"
	"github.com/arti-chat/core/internal/store"
	"github.com/arti-chat/core/internal/wire"
)

// InboundEvent is emitted after a message has been durably persisted,
// one per accepted frame, for the IPC server to broadcast onward
// (spec §4.F step 7, §5 ordering guarantee).
type InboundEvent struct {
	OnionID string
}

// Dispatcher accepts inbound peer streams and turns signed frames into
// persisted messages and broadcast events.
type Dispatcher struct {
	client      overlay.Client
	store       *store.Store
	virtualPort uint16
	events      chan<- InboundEvent
	notifier    Notifier
	focused     *atomic.Bool
	log         logger.Logger
}

// New builds a Dispatcher. focused, if non-nil, lets the dispatcher
// skip desktop notifications while the UI has app focus (spec §4.F
// step 8); a nil focused is treated as "never focused".
func New(client overlay.Client, db *store.Store, virtualPort uint16, events chan<- InboundEvent, notifier Notifier, focused *atomic.Bool, log logger.Logger) *Dispatcher {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Dispatcher{
		client:      client,
		store:       db,
		virtualPort: virtualPort,
		events:      events,
		notifier:    notifier,
		focused:     focused,
		log:         log,
	}
}

// Run loops over inbound rendezvous requests until ctx is canceled or
// the overlay client's inbound channel closes. Each request is handled
// in its own goroutine so a slow or misbehaving peer stream can't stall
// the loop.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-d.client.Inbound():
			if !ok {
				return
			}
			go d.handle(ctx, req)
		}
	}
}

// handle processes exactly one rendezvous request end to end. It never
// lets a panic escape: Run must keep accepting new requests regardless
// of what a single malformed peer stream does.
func (d *Dispatcher) handle(ctx context.Context, req overlay.IncomingRequest) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatcher handler panicked", logger.Any("recover", r))
		}
	}()

	if req.VirtualPort != d.virtualPort {
		if req.Reject != nil {
			_ = req.Reject()
		}
		d.log.Warn("rejected request on unexpected virtual port", logger.Int("port", int(req.VirtualPort)))
		return
	}

	conn, err := req.Accept(ctx)
	if err != nil {
		d.log.Warn("failed to accept inbound stream", logger.Error(err))
		return
	}
	defer conn.Close()

	raw, err := frame.ReadFrame(conn, 0)
	if err != nil {
		d.log.Warn("failed to read inbound frame", logger.Error(err))
		return
	}

	signed, err := wire.Unmarshal(raw)
	if err != nil {
		d.log.Warn("failed to parse inbound payload", logger.Error(err))
		return
	}

	contact, err := d.store.GetContact(signed.Payload.OnionID)
	if err != nil {
		if errors.Is(err, coreerr.ErrNotFound) {
			metrics.MessagesDroppedUnknownSender.Inc()
			d.log.Info("dropped message from unknown sender", logger.String("onion_id", signed.Payload.OnionID))
			return
		}
		d.log.Error("failed to look up contact", logger.Error(err))
		return
	}

	verifyErr := wire.Verify(contact.PublicKey, signed)
	verified := verifyErr == nil
	if verifyErr != nil {
		metrics.SignatureVerifications.WithLabelValues("invalid").Inc()
		d.log.Warn("signature verification failed, storing unverified", logger.String("onion_id", contact.OnionID), logger.Error(verifyErr))
	} else {
		metrics.SignatureVerifications.WithLabelValues("valid").Inc()
	}

	if !wire.WithinSkew(signed.Payload) {
		d.log.Warn("payload timestamp outside skew tolerance", logger.String("onion_id", contact.OnionID))
	}

	id, err := d.store.InsertMessage(store.Message{
		ContactID: contact.OnionID,
		Body:      signed.Payload.Text,
		Timestamp: signed.Payload.Timestamp,
		Direction: store.Inbound,
		Verified:  verified,
	})
	if err != nil {
		d.log.Error("failed to persist inbound message", logger.Error(err))
		return
	}
	metrics.MessagesPersisted.WithLabelValues("inbound").Inc()

	if d.events != nil {
		select {
		case d.events <- InboundEvent{OnionID: contact.OnionID}:
		case <-ctx.Done():
		}
	}

	d.maybeNotify(contact.OnionID, signed.Payload.Text)
	d.log.Debug("inbound message dispatched", logger.String("onion_id", contact.OnionID), logger.Int("message_id", int(id)))
}

func (d *Dispatcher) maybeNotify(onionID, text string) {
	enabled, err := d.store.ConfigGetBool("enable_notifications")
	if err != nil || !enabled {
		return
	}
	if d.focused != nil && d.focused.Load() {
		return
	}
	if err := d.notifier.Notify(onionID, text); err != nil {
		d.log.Warn("desktop notification failed", logger.Error(err))
	}
}

var _ fmt.Stringer = (*Dispatcher)(nil)

// String implements fmt.Stringer for logging.
func (d *Dispatcher) String() string {
	return fmt.Sprintf("dispatcher{virtual_port=%d}", d.virtualPort)
}
