package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/folio/internal/adapter/driven/bundle"
	"github.com/ericfisherdev/folio/internal/adapter/driven/localbucket"
	sqliteadapter "github.com/ericfisherdev/folio/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/folio/internal/adapter/driven/supabase"
	httphandler "github.com/ericfisherdev/folio/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/folio/internal/adapter/driving/web"
	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/catalog"
	"github.com/ericfisherdev/folio/internal/config"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// purgeInterval is how often expired sessions and magic links are removed
// from the sqlite backend.
const purgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// backend bundles the driven adapters selected by configuration. A nil field
// means the capability is unavailable.
type backend struct {
	rows     driven.RowStore
	objects  driven.ObjectStore
	identity driven.IdentityProvider
	mediaDir string
	close    func()
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"public_url", cfg.PublicURL,
		"backend", cfg.Backend,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Load the collection catalog and the bundled fallback data.
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	fallback, err := bundle.New()
	if err != nil {
		return err
	}
	slog.Info("catalog loaded", "collections", len(cat.Collections()), "pages", len(cat.Pages()))

	// 4. Open the configured backend.
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	// 5. Create application services.
	logger := slog.Default()
	loader := application.NewRecordLoader(be.rows, fallback, logger)
	records := application.NewRecordService(cat, be.rows, be.objects, logger)
	auth := application.NewAuthService(be.identity, logger)

	// 6. Create handlers and register routes.
	apiHandler := httphandler.NewHandler(cat, loader, string(cfg.Backend), logger)
	webHandler := webhandler.NewHandler(cat, loader, records, auth, webhandler.Options{
		SiteTitle:    cfg.SiteTitle,
		Tagline:      cfg.Tagline,
		PublicURL:    cfg.PublicURL,
		CookieSecure: cfg.CookieSecure,
		SuccessDelay: cfg.SuccessDelay,
		MediaDir:     be.mediaDir,
	}, logger)

	handler := httphandler.NewServeMux(apiHandler, logger, func(mux *http.ServeMux) {
		webhandler.RegisterRoutes(mux, webHandler)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 7. Log startup complete.
	slog.Info("folio started", "listen_addr", cfg.ListenAddr, "backend", cfg.Backend)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return openSQLite(ctx, cfg)
	case config.BackendSupabase:
		return openSupabase(cfg)
	default:
		slog.Warn("no backend configured, serving bundled data only")
		return &backend{close: func() {}}, nil
	}
}

func openSQLite(ctx context.Context, cfg *config.Config) (*backend, error) {
	// Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}
	slog.Info("database opened", "path", cfg.DBPath)

	// Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		closeDB()
		return nil, err
	}
	slog.Info("migrations complete", "version", version)

	media, err := localbucket.New(cfg.MediaDir, "/media")
	if err != nil {
		closeDB()
		return nil, err
	}

	identity := sqliteadapter.NewIdentityRepo(db, sqliteadapter.LogLinkSender(slog.Default()), cfg.SessionTTL)
	if err := identity.EnsureAdmins(ctx, cfg.AdminEmails); err != nil {
		closeDB()
		return nil, fmt.Errorf("grant admin role: %w", err)
	}
	if len(cfg.AdminEmails) > 0 {
		slog.Info("admin role granted", "emails", cfg.AdminEmails)
	}

	go purgeExpired(ctx, identity)

	return &backend{
		rows:     sqliteadapter.NewRowStore(db),
		objects:  media,
		identity: identity,
		mediaDir: media.Root(),
		close:    closeDB,
	}, nil
}

func openSupabase(cfg *config.Config) (*backend, error) {
	client, err := supabase.NewClient(supabase.Config{
		URL:        cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("supabase client created", "url", cfg.SupabaseURL)

	return &backend{
		rows:     supabase.NewRowStore(client),
		objects:  supabase.NewStorage(client),
		identity: supabase.NewAuth(client),
		close:    func() {},
	}, nil
}

// purgeExpired removes expired sessions and links until ctx is canceled.
func purgeExpired(ctx context.Context, identity *sqliteadapter.IdentityRepo) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := identity.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("purge expired sessions failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions purged", "rows", n)
			}
		}
	}
}
