package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type registryFlags struct {
	database   string
	pepperFile string
}

func newClientsCmd() *cobra.Command {
	flags := &registryFlags{}

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage the SQLite client registry",
		Long: `Manage clients in the SQLite registry used by authserver with
AUTH_STORE=sqlite. Point --database and --pepper-file at the same files
as the server; secrets hashed with another pepper will not verify.`,
	}

	cmd.PersistentFlags().StringVar(&flags.database, "database", "auth.db", "SQLite database file (AUTH_DATABASE_FILE)")
	cmd.PersistentFlags().StringVar(&flags.pepperFile, "pepper-file", "", "Pepper file (AUTH_PEPPER_FILE)")

	cmd.AddCommand(
		newClientsListCmd(flags),
		newClientsAddCmd(flags),
		newClientsRemoveCmd(flags),
		newClientsRotateCmd(flags),
	)
	return cmd
}

// open returns a client service over the registry database. The caller
// must call the returned close function.
func (f *registryFlags) open() (*service.ClientService, func() error, error) {
	pepper, err := cryptox.LoadOrCreatePepper(f.pepperFile)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqlite.NewStore(sqlite.FileDSN(f.database))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &service.ClientService{Store: db, Hasher: cryptox.NewSecretHasher(pepper)}, db.Close, nil
}

func newClientsListCmd(flags *registryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			clients, err := svc.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), text.FgYellow.Sprint("No clients registered"))
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"ID", "NAME", "GRANTS", "SCOPES", "AUTHORITIES", "VALIDITY"})
			for _, c := range clients {
				validity := "default"
				if c.AccessTokenValidity > 0 {
					validity = c.AccessTokenValidity.String()
				}
				t.AppendRow(table.Row{
					c.ID,
					c.Name,
					strings.Join(c.GrantTypes, " "),
					strings.Join(c.Scopes, " "),
					strings.Join(c.Authorities, " "),
					validity,
				})
			}
			t.Render()
			return nil
		},
	}
}

func newClientsAddCmd(flags *registryFlags) *cobra.Command {
	var (
		name        string
		scopes      []string
		authorities []string
		validity    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Register a client and print its generated secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			if name == "" {
				name = args[0]
			}
			secret, err := svc.RegisterClient(cmd.Context(), domain.Client{
				ID:                  args[0],
				Name:                name,
				GrantTypes:          []string{domain.GrantClientCredentials},
				Scopes:              scopes,
				Authorities:         authorities,
				AccessTokenValidity: validity,
			})
			if err != nil {
				return err
			}
			return printSecret(cmd, args[0], secret)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (default: the id)")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Allowed scopes (repeatable)")
	cmd.Flags().StringSliceVar(&authorities, "authority", nil, "Granted authorities (repeatable)")
	cmd.Flags().DurationVar(&validity, "validity", 0, "Access token validity (default: server default)")
	return cmd
}

func newClientsRemoveCmd(flags *registryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			if err := svc.DeleteClient(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, service.ErrClientNotFound) {
					return fmt.Errorf("client %q is not registered", args[0])
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "client %s removed\n", args[0])
			return err
		},
	}
}

func newClientsRotateCmd(flags *registryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate ID",
		Short: "Replace a client's secret and print the new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			secret, err := svc.RotateSecret(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, service.ErrClientNotFound) {
					return fmt.Errorf("client %q is not registered", args[0])
				}
				return err
			}
			return printSecret(cmd, args[0], secret)
		},
	}
}

func printSecret(cmd *cobra.Command, clientID, secret string) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "client_id:     %s\nclient_secret: %s\n", clientID, secret); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.ErrOrStderr(), text.FgYellow.Sprint("The secret is shown once and cannot be recovered."))
	return err
}
