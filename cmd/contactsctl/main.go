// Command contactsctl runs schema migrations and account maintenance against the contacts database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/cmd/contactsctl/ui"
	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/database"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// app carries the state shared by subcommands. It is filled in by the root PersistentPreRunE.
type app struct {
	cfg *config.Config
	db  *bun.DB
}

// admin opens the database on first use.
func (a *app) admin(ctx context.Context) (*userAdmin, error) {
	if a.db == nil {
		db, err := database.Open(ctx, a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	return &userAdmin{users: user.NewRepository(a.db), hasher: auth.NewPasswordHasher()}, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func main() {
	a := &app{}
	defer a.close()

	rootCmd := &cobra.Command{
		Use:           "contactsctl",
		Short:         "Administer the contacts API",
		Long:          "Run database migrations and manage user accounts. Configuration is read from the same environment as the API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(newMigrateCmd(a), newUserCmd(a))

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		a.close()
		os.Exit(1)
	}
}
