// Command folioctl performs operator tasks against the configured backend:
// granting the admin role, issuing sign-in links and inspecting collections.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/folio/internal/adapter/driven/bundle"
	sqliteadapter "github.com/ericfisherdev/folio/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/folio/internal/adapter/driven/supabase"
	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/catalog"
	"github.com/ericfisherdev/folio/internal/config"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// app holds the wiring shared by every command. It is built once per
// invocation by the root command.
type app struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	loader   *application.RecordLoader
	auth     *application.AuthService
	counter  func(ctx context.Context) (map[string]int, error)
	identity driven.IdentityProvider
	close    func()
}

// appFactory builds the wiring for one invocation from the --env-file flag.
type appFactory func(cmd *cobra.Command, envFile string) (*app, error)

func newRootCmd(build appFactory) *cobra.Command {
	var (
		envFile string
		current *app
	)

	root := &cobra.Command{
		Use:   "folioctl",
		Short: "Operator tool for a folio deployment",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd, envFile)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if current != nil && current.close != nil {
				current.close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	get := func() *app { return current }
	root.AddCommand(newSetAdminCmd(get), newSendLinkCmd(get), newCollectionsCmd(get))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(setupApp).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, envFile string) (*app, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	fallback, err := bundle.New()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	a := &app{cfg: cfg, catalog: cat, close: func() {}}

	var rows driven.RowStore
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqliteadapter.NewDB(cmd.Context(), cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.close = func() { _ = db.Close() }
		if _, err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			a.close()
			return nil, err
		}

		store := sqliteadapter.NewRowStore(db)
		rows = store
		a.counter = store.Count
		a.identity = sqliteadapter.NewIdentityRepo(db, sqliteadapter.LogLinkSender(logger), cfg.SessionTTL)

	case config.BackendSupabase:
		client, err := supabase.NewClient(supabase.Config{
			URL:        cfg.SupabaseURL,
			AnonKey:    cfg.SupabaseAnonKey,
			ServiceKey: cfg.SupabaseServiceKey,
		})
		if err != nil {
			return nil, err
		}
		rows = supabase.NewRowStore(client)
		a.identity = supabase.NewAuth(client)
	}

	a.loader = application.NewRecordLoader(rows, fallback, logger)
	a.auth = application.NewAuthService(a.identity, logger)
	return a, nil
}
