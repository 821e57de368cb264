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

import "github.com/prometheus/client_golang/prometheus"

const namespace = "arti_chat"

// Registry is the process-wide Prometheus registry. Every metric in
// this package registers against it via promauto.With(Registry).
var Registry = prometheus.NewRegistry()
