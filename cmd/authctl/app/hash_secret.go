package app

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/spf13/cobra"
)

func newHashSecretCmd() *cobra.Command {
	var pepperFile string

	cmd := &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Hash a client secret for the client registry file",
		Long: `Hash a client secret with argon2id, producing the secret_hash value of a
client registry entry. The secret is read from stdin when not given as an
argument. Use the same pepper file as the server.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, args)
			if err != nil {
				return err
			}

			pepper, err := cryptox.LoadOrCreatePepper(pepperFile)
			if err != nil {
				return err
			}

			hash, err := cryptox.NewSecretHasher(pepper).Hash(secret)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().StringVar(&pepperFile, "pepper-file", "", "Pepper file shared with the server (AUTH_PEPPER_FILE)")
	return cmd
}

func readSecret(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return "", errors.New("secret must not be empty")
	}
	return secret, nil
}
