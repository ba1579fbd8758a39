// Command linkctl manages short links directly against the PostgreSQL
// link store: schema migrations, link creation and edits, click stats.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shortlink/internal/config"
	"shortlink/internal/repository/postgres"
	"shortlink/internal/service"
	"shortlink/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	cliLogger *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "linkctl",
	Short:         "Manage shortlink links and schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if loaded.Database.Driver != config.DriverPostgres {
			return errors.New("linkctl needs DB_DRIVER=postgres")
		}
		cfg = loaded
		cliLogger = logger.NewWithWriter(os.Stderr, loaded.App.LogLevel, "text")
		return nil
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd(), createCmd(), updateCmd(), deleteCmd(), getCmd(), statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openService connects to the database and builds the link service.
// The returned func closes the pool after pending click writes finish.
func openService(ctx context.Context) (*service.LinkService, func(), error) {
	db, err := postgres.InitDB(ctx, cfg.Database.DatabaseURL(), 2, 0, cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, nil, err
	}

	repo := postgres.NewLinkRepository(db, cfg.Database.QueryTimeout)
	svc := service.NewLinkService(repo, nil, cliLogger.Logger,
		service.WithHashLength(cfg.App.HashLength),
		service.WithClickWriteTimeout(cfg.Click.WriteTimeout),
	)

	return svc, func() {
		svc.Wait()
		db.Close()
	}, nil
}
