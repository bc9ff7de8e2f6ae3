// Package main provides the entry point for the certsnap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for certsnap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certsnap",
		Short: "Resolve certificate identifiers and archive their media",
		Long: `certsnap resolves certificate identifiers against a grading service's
lookup site, downloads the certification media found on each detail page,
and emits a CSV mapping every identifier to its media URLs.

The lookup site sits behind anti-bot defenses; route requests through an
authenticating HTTP proxy with --proxy to traverse them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
