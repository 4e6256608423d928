package app

import (
	"fmt"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/spf13/cobra"
)

func newJWKSCmd() *cobra.Command {
	var asPEM bool

	cmd := &cobra.Command{
		Use:   "jwks",
		Short: "Print the published JSON Web Key Set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwks, err := authsdk.NewSDKClient(serverURL(cmd)).GetJWKS(cmd.Context())
			if err != nil {
				return err
			}
			if !asPEM {
				return printJSON(cmd.OutOrStdout(), jwks)
			}

			for _, key := range jwks.Keys {
				block, err := key.PEM()
				if err != nil {
					return fmt.Errorf("key %s: %w", key.Kid, err)
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "# kid: %s\n%s", key.Kid, block); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asPEM, "pem", false, "Print each key as a PKIX PEM block")
	return cmd
}

func newDiscoveryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discovery",
		Short: "Print the OpenID provider configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := authsdk.NewSDKClient(serverURL(cmd)).GetDiscovery(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
}
