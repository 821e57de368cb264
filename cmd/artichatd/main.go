// Copyright (C) 2026 arti-chat authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Command artichatd is the background messaging core: it bootstraps an
// overlay-network hidden service, persists and relays signed peer
// messages, and exposes a local command/event surface to a front-end
// UI over two Unix-domain sockets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "artichatd",
	Short: "arti-chat background messaging core",
	Long: `artichatd is the long-lived background process of a peer-to-peer
chat application that routes all traffic over an anonymizing overlay
network via per-user hidden services.

It bootstraps the overlay client, publishes a hidden service, accepts
and sends signed peer messages, retries failed sends, and exposes a
local duplex command/event surface to a front-end UI process.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Subcommands register themselves in their own files:
	// - run.go: runCmd (the daemon's main loop)
	// - keys.go: keysShowCmd
	// - configcmd.go: configValidateCmd
}
