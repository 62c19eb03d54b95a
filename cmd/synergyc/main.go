// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Command synergyc connects to a Synergy server as a client screen and logs
// the input events it receives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "synergyc",
		Short: "Headless Synergy client",
		Long: `synergyc joins a Synergy server as a client screen.

It answers the handshake, screen info and keepalive messages, reconnects
after failures and reports every input event through the configured logger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
