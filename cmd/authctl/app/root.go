// Package app holds the authctl command tree.
package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

// NewRootCmd builds the authctl command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "authctl",
		Short: "Operate and inspect the authorization server",
		Long: `authctl requests and verifies client_credentials tokens, inspects the
published key set and discovery document, generates signing keys, and
manages the SQLite client registry used by authserver.`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "authctl version %s\n" .Version}}`)

	rootCmd.PersistentFlags().String("server", defaultServer, "Base URL of the authorization server")

	rootCmd.AddCommand(
		newHashSecretCmd(),
		newKeygenCmd(),
		newTokenCmd(),
		newVerifyCmd(),
		newJWKSCmd(),
		newDiscoveryCmd(),
		newClientsCmd(),
	)
	return rootCmd
}

func serverURL(cmd *cobra.Command) string {
	server, _ := cmd.Flags().GetString("server")
	return server
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
