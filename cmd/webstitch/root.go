package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webstitch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webstitch",
		Short: "Stitch chained web pages into a single document",
		Long: `Webstitch crawls a chain of linked pages ("next chapter" style navigation),
extracts the content fragment of each page with a CSS selector, and stitches
the fragments into one standalone HTML document in reading order.

Pages are fetched concurrently while the output preserves chain order.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewStitchCmd())
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
