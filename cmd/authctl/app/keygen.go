package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	var (
		bits      int
		out       string
		publicOut string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA signing key for AUTH_KEY_SOURCE=pem",
		Long: `Generate an RSA private key and write it as a PKCS8 PEM file that the
server loads through AUTH_KEY_FILE. The kid the server will publish for the
key is printed. Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := cryptox.GenerateRSAKey(bits)
			if err != nil {
				return err
			}
			pair, err := jwtx.NewKeyPair(key)
			if err != nil {
				return err
			}

			privPEM, err := cryptox.EncodeRSAKeyPKCS8(key)
			if err != nil {
				return err
			}
			if err := writeKeyFile(out, privPEM, 0o600, force); err != nil {
				return err
			}

			if publicOut != "" {
				pubPEM, err := cryptox.EncodeRSAPublicKey(pair.Public())
				if err != nil {
					return err
				}
				if err := writeKeyFile(publicOut, pubPEM, 0o644, force); err != nil {
					return err
				}
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), pair.KID())
			return err
		},
	}

	cmd.Flags().IntVar(&bits, "bits", cryptox.MinRSABits, "RSA modulus size")
	cmd.Flags().StringVar(&out, "out", "", "Private key PEM file to write (AUTH_KEY_FILE)")
	cmd.Flags().StringVar(&publicOut, "public-out", "", "Optional PKIX public key PEM file to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func writeKeyFile(path string, data []byte, perm fs.FileMode, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(filepath.Clean(path), flags, perm) // #nosec G304 - operator supplied path
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists, pass --force to overwrite", path)
	}
	if err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	return f.Close()
}
