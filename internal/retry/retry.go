// Package retry implements the retry loop (spec §4.H): every tick it
// scans for un-acknowledged outbound messages within the eligibility
// window and re-sends them, marking delivered on success and pushing a
// reload hint to every connected UI.
package retry

import (
	"context"
	"time"

	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
	"github.com/arti-chat/core/internal/store"
)

// Sender is the narrow slice of internal/sender.Sender the retry loop
// needs, kept as an interface so tests can inject a fake without a
// live overlay client.
type Sender interface {
	Send(ctx context.Context, peerOnionID, text string) error
}

// Broadcaster pushes a reload hint naming the contact whose
// conversation changed. Implemented by internal/ipc.Server.
type Broadcaster interface {
	BroadcastReload(onionID string)
}

// Loop owns the retry ticker.
type Loop struct {
	store       *store.Store
	sender      Sender
	broadcaster Broadcaster
	tick        time.Duration
	minAge      time.Duration
	maxAge      time.Duration
	log         logger.Logger
}

// New builds a retry Loop. tick is the scan interval (spec default
// 20s); minAge/maxAge bound message eligibility (spec default
// [30s, 300s]).
func New(db *store.Store, sender Sender, broadcaster Broadcaster, tick, minAge, maxAge time.Duration, log logger.Logger) *Loop {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Loop{store: db, sender: sender, broadcaster: broadcaster, tick: tick, minAge: minAge, maxAge: maxAge, log: log}
}

// Run blocks, ticking until ctx is canceled. It has no external
// cancellation besides ctx and is meant to run for the process
// lifetime (spec §5).
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.scanOnce(ctx)
		}
	}
}

func (l *Loop) scanOnce(ctx context.Context) {
	msgs, err := l.store.FailedOutboundMessages(l.minAge, l.maxAge)
	if err != nil {
		l.log.Error("retry scan failed", logger.Error(err))
		return
	}

	for _, m := range msgs {
		err := l.sender.Send(ctx, m.ContactID, m.Body)
		if err != nil {
			metrics.RetryAttempts.WithLabelValues("failed").Inc()
			l.log.Warn("retry resend failed, will re-evaluate next tick", logger.String("onion_id", m.ContactID), logger.Int("message_id", int(m.ID)), logger.Error(err))
			continue
		}

		metrics.RetryAttempts.WithLabelValues("delivered").Inc()
		if err := l.store.MarkDelivered(m.ID); err != nil {
			l.log.Error("failed to mark message delivered after retry", logger.Error(err))
			continue
		}
		if l.broadcaster != nil {
			l.broadcaster.BroadcastReload(m.ContactID)
		}
		l.log.Info("retry resend succeeded", logger.String("onion_id", m.ContactID), logger.Int("message_id", int(m.ID)))
	}
}
