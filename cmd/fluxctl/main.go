package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flux_irrigation/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fluxctl",
		Short: "fluxctl - connection key and reachability tool for Flux irrigation",
		Long: `fluxctl builds and inspects the connection keys homeowners share with
their management company, and checks whether a key still reaches its system.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.KeyCmd())
	rootCmd.AddCommand(cli.CheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
