package cli

import (
	"context"
	"fmt"
	"time"

	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CheckCmd runs the reachability protocol against the system a key points at.
func CheckCmd() *cobra.Command {
	var (
		timeout  time.Duration
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "check <token>",
		Short: "Check whether a homeowner system is reachable with a key",
		Long: `Runs the same two-phase check management uses: an unauthenticated
health probe, then an authenticated status call. Exits non-zero unless the
system is online and the key is accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := connkey.Decode(args[0])
			if err != nil {
				return err
			}

			client := proxy.NewClient(timeout, insecure, logger.Nop())
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*timeout+time.Second)
			defer cancel()

			res := service.NewReachabilityService(client).Check(ctx, k)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verdict(res), k.URL)
			if res.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", res.Error)
			}
			if !res.Online() {
				return fmt.Errorf("homeowner system is not available")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "per-request timeout")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	return cmd
}

func verdict(res models.HealthResult) string {
	switch {
	case res.Online():
		return color.New(color.FgHiGreen).Sprint("ONLINE")
	case res.Revoked:
		return color.New(color.FgRed).Sprint("REVOKED")
	case res.Reachable:
		return color.New(color.FgYellow).Sprint("KEY REJECTED")
	default:
		return color.New(color.FgRed).Sprint("OFFLINE")
	}
}
