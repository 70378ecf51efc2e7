package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tenant-registry/backend/internal/api"
	"tenant-registry/backend/internal/config"
	"tenant-registry/backend/internal/database"
	"tenant-registry/backend/internal/logging"
	"tenant-registry/backend/internal/mcp"
	"tenant-registry/backend/internal/migrate"
	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/internal/services"
	"tenant-registry/backend/internal/telemetry"
	"tenant-registry/backend/internal/tls"
)

const shutdownTimeout = 30 * time.Second

// app carries what every subcommand shares: the loaded configuration and
// the logger built from it.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *logging.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:               "tenant-registry",
		Short:             "Users and tenants CRUD API",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE:              a.serve,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "path to a config file (default: ./config.yaml or ./config/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-dev", false, "human readable debug logging")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.dev", flags.Lookup("log-dev"))

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  a.serve,
	}
	serve.Flags().String("addr", ":8080", "listen address")
	serve.Flags().Bool("auto-migrate", false, "upgrade the schema to head before serving")
	_ = a.v.BindPFlag("server.addr", serve.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("db.auto_migrate", serve.Flags().Lookup("auto-migrate"))

	root.AddCommand(serve, newMigrateCommand(a))
	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewLogger(cfg.Log.Level, cfg.Log.Dev)
	a.logger.Debug("Configuration loaded",
		"config_file", a.v.ConfigFileUsed(),
		"db_host", cfg.DB.Host,
		"db_name", cfg.DB.Name,
	)
	return nil
}

// openDB connects to the configured database; callers must Close the pool.
func (a *app) openDB(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, a.cfg)
	if err != nil {
		a.logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	a.logger.Info("Database connected", "host", a.cfg.DB.Host, "name", a.cfg.DB.Name)
	return pool, nil
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := a.logger
	logger.Info("Starting tenant registry")

	dbPool, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if a.cfg.DB.AutoMigrate {
		chain, err := migrate.Embedded()
		if err != nil {
			return err
		}
		if _, err := migrate.New(dbPool, chain, logger).Upgrade(ctx, migrate.Head); err != nil {
			logger.Error("Auto-migration failed", "error", err)
			return err
		}
	}

	// Repository and service layers
	store := repository.NewPostgresStore(dbPool, logger)
	metrics := telemetry.GetMetrics()
	users := services.NewUserService(store, services.NewBcryptHasher(0), metrics)
	tenants := services.NewTenantService(store, metrics)

	mcpServer := mcp.NewServer(users, tenants, logger)

	e := api.NewRouter(api.NewServer(users, tenants, store), api.RouterOptions{
		Logger:  logger,
		Metrics: telemetry.NewHTTPMetrics(),
		MCP:     mcp.HTTPHandler(mcpServer.GetMCPServer()),
	})

	addr := a.cfg.ListenAddr()
	// No WriteTimeout: /mcp/sse responses are long-lived streams.
	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", addr, "tls", a.cfg.TLS.Enable)
		if a.cfg.TLS.Enable {
			generated, err := tls.EnsureCertificate(a.cfg.TLS.CertFile, a.cfg.TLS.KeyFile, a.cfg.TLS.Hostnames)
			if err != nil {
				serverErrors <- err
				return
			}
			if generated {
				logger.Warn("Generated self-signed certificate", "cert_file", a.cfg.TLS.CertFile)
			}
			serverErrors <- server.ListenAndServeTLS(a.cfg.TLS.CertFile, a.cfg.TLS.KeyFile)
			return
		}
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		if err := server.Close(); err != nil {
			logger.Error("Server close error", "error", err)
		}
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
