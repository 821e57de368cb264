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
	// FramesRead tracks frames read off peer streams.
	FramesRead = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "read_total",
			Help:      "Total number of null-terminated frames read",
		},
		[]string{"status"}, // ok, too_large, truncated
	)

	// FramesWritten tracks frames written to peer streams.
	FramesWritten = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "written_total",
			Help:      "Total number of null-terminated frames written",
		},
	)

	// RetryAttempts tracks retry-loop resend attempts.
	RetryAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Total number of retry-loop resend attempts",
		},
		[]string{"status"}, // delivered, failed
	)

	// IPCConnections tracks accepted IPC connections by socket kind.
	IPCConnections = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ipc",
			Name:      "connections_total",
			Help:      "Total number of accepted IPC connections",
		},
		[]string{"socket"}, // broadcast, rpc
	)

	// IPCBroadcastsDropped tracks broadcast sends that failed to reach a
	// subscriber because its write queue was full, causing the sink to
	// be pruned.
	IPCBroadcastsDropped = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ipc",
			Name:      "broadcasts_dropped_total",
			Help:      "Total number of broadcast sends dropped because a subscriber's sink was full",
		},
	)
)
