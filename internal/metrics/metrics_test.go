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

import "testing"

func TestMetricsRegistration(t *testing.T) {
	if MessagesPersisted == nil {
		t.Error("MessagesPersisted metric is nil")
	}
	if MessagesDroppedUnknownSender == nil {
		t.Error("MessagesDroppedUnknownSender metric is nil")
	}
	if SignatureVerifications == nil {
		t.Error("SignatureVerifications metric is nil")
	}
	if OutboundSendDuration == nil {
		t.Error("OutboundSendDuration metric is nil")
	}
	if FramesRead == nil {
		t.Error("FramesRead metric is nil")
	}
	if FramesWritten == nil {
		t.Error("FramesWritten metric is nil")
	}
	if RetryAttempts == nil {
		t.Error("RetryAttempts metric is nil")
	}
	if IPCConnections == nil {
		t.Error("IPCConnections metric is nil")
	}
	if IPCBroadcastsDropped == nil {
		t.Error("IPCBroadcastsDropped metric is nil")
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	if Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
