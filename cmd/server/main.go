// Command ems runs the event management server and its audit consumer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ems",
		Short: "In-memory event seating server over named pipes",
		Long: `ems serves an in-memory event table to clients that talk a binary
request/response protocol over a pair of named pipes per session.

Configuration beyond the command line is read from the environment
and from an optional .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		auditCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ems: %s\n", err)
		os.Exit(1)
	}
}
