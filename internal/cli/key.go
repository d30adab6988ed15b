package cli

import (
	"encoding/json"
	"fmt"

	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// KeyCmd groups the connection key helpers.
func KeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Encode and decode connection keys",
		Long: `A connection key is the base64url JSON credential a homeowner hands to
their management company. These commands build one from flags or show what
an existing key contains.`,
	}
	cmd.AddCommand(keyEncodeCmd())
	cmd.AddCommand(keyDecodeCmd())
	return cmd
}

func keyEncodeCmd() *cobra.Command {
	var (
		k         models.ConnectionKey
		mode      string
		zoneCount int
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a connection key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := models.ParseConnectionMode(mode)
			if !ok {
				return fmt.Errorf("invalid mode: %s\nValid modes: direct, relayed", mode)
			}
			k.Mode = m
			if zoneCount > 0 {
				k.ZoneCount = &zoneCount
			}
			if k.Mode != models.ModeRelayed {
				k.HAToken = ""
			}
			token, err := connkey.Encode(k)
			if err != nil {
				return fmt.Errorf("failed to encode key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&k.URL, "url", "", "homeowner API base URL (required)")
	f.StringVar(&k.Key, "key", "", "homeowner API key (required)")
	f.StringVar(&k.Label, "label", "", "display label")
	f.StringVar(&k.FirstName, "first-name", "", "homeowner first name")
	f.StringVar(&k.LastName, "last-name", "", "homeowner last name")
	f.StringVar(&k.Address, "address", "", "street address")
	f.StringVar(&k.City, "city", "", "city")
	f.StringVar(&k.State, "state", "", "state")
	f.StringVar(&k.Zip, "zip", "", "zip code")
	f.StringVar(&k.Phone, "phone", "", "contact phone")
	f.IntVar(&zoneCount, "zones", 0, "number of irrigation zones")
	f.StringVar(&mode, "mode", string(models.ModeDirect), "connection mode: direct or relayed")
	f.StringVar(&k.HAToken, "ha-token", "", "hub token (relayed mode only)")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func keyDecodeCmd() *cobra.Command {
	var asJSON, showSecrets bool

	cmd := &cobra.Command{
		Use:   "decode <token>",
		Short: "Show what a connection key contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := connkey.Decode(args[0])
			if err != nil {
				return err
			}
			if !showSecrets {
				k.Key = mask(k.Key)
				k.HAToken = mask(k.HAToken)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(k)
			}

			label := color.New(color.FgCyan).SprintFunc()
			fmt.Fprintf(out, "%s %s\n", label("URL:    "), k.URL)
			fmt.Fprintf(out, "%s %s\n", label("Mode:   "), k.Mode)
			fmt.Fprintf(out, "%s %s\n", label("API key:"), k.Key)
			if k.Label != "" {
				fmt.Fprintf(out, "%s %s\n", label("Label:  "), k.Label)
			}
			if name := joinNonEmpty(" ", k.FirstName, k.LastName); name != "" {
				fmt.Fprintf(out, "%s %s\n", label("Contact:"), name)
			}
			if addr := joinNonEmpty(", ", k.Address, k.City, k.State, k.Zip); addr != "" {
				fmt.Fprintf(out, "%s %s\n", label("Address:"), addr)
			}
			if k.Phone != "" {
				fmt.Fprintf(out, "%s %s\n", label("Phone:  "), k.Phone)
			}
			if k.ZoneCount != nil {
				fmt.Fprintf(out, "%s %d\n", label("Zones:  "), *k.ZoneCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decoded key as JSON")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print the API key and hub token in full")
	return cmd
}

// mask keeps the last four characters of a secret.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
