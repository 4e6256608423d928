package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var issuer string

	cmd := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify an access token the way a resource server would",
		Long: `Verify an access token against the server's published key set and print
its claims. The expected issuer is read from the discovery document unless
--issuer is given. The key set is always fetched from --server, so the
issuer does not have to be reachable from here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			server := strings.TrimSuffix(serverURL(cmd), "/")

			if issuer == "" {
				doc, err := authsdk.NewSDKClient(server).GetDiscovery(ctx)
				if err != nil {
					return fmt.Errorf("fetch discovery document: %w", err)
				}
				issuer = doc.Issuer
			}

			keySet := oidc.NewRemoteKeySet(ctx, server+authsdk.PathJWKS)
			verifier := oidc.NewVerifier(issuer, keySet, &oidc.Config{
				SkipClientIDCheck:    true,
				SupportedSigningAlgs: []string{oidc.RS256},
			})

			tok, err := verifier.Verify(ctx, args[0])
			if err != nil {
				var expired *oidc.TokenExpiredError
				if errors.As(err, &expired) {
					return fmt.Errorf("token expired at %s", expired.Expiry)
				}
				return fmt.Errorf("token rejected: %w", err)
			}

			var claims map[string]any
			if err := tok.Claims(&claims); err != nil {
				return fmt.Errorf("decode claims: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), claims)
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "", "Expected issuer (default: from discovery)")
	return cmd
}
