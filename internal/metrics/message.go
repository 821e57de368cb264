// arti-chat - background messaging core
// Copyright (C) 2026 arti-chat authors
//
// This file is part of arti-chat.
//
// arti-chat is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// arti-chat is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with arti-chat. If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesPersisted tracks messages written to the store, by direction.
	MessagesPersisted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "persisted_total",
			Help:      "Total number of messages persisted",
		},
		[]string{"direction"}, // inbound/outbound
	)

	// MessagesDroppedUnknownSender tracks inbound frames from unknown contacts.
	MessagesDroppedUnknownSender = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "dropped_unknown_sender_total",
			Help:      "Total number of inbound frames dropped because the sender is not a known contact",
		},
	)

	// SignatureVerifications tracks signature verification outcomes.
	SignatureVerifications = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "signature_verifications_total",
			Help:      "Total number of inbound signature verifications",
		},
		[]string{"status"}, // valid, invalid
	)

	// OutboundSendDuration tracks how long a one-shot outbound send took.
	OutboundSendDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "outbound_send_duration_seconds",
			Help:      "Outbound stream-open-sign-write-close duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)
