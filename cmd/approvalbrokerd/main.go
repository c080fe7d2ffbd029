// Command approvalbrokerd runs the local, privilege-separated approval
// broker described in spec.md.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "approvalbrokerd",
		Short: "Local approval broker gating access to gated secrets",
	}

	root.AddCommand(buildServeCmd())
	root.AddCommand(buildStatusCmd())
	root.AddCommand(buildVersionCmd())

	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("approvalbrokerd %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}
