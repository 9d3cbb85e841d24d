package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/server"
	"github.com/territoryops/recon/pkg/server/endpoints"
)

const shutdownTimeout = 15 * time.Second

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the recon application server",
	Long: `Run the recon application server.

The server requires DATABASE_URL unless --fixture is given, and
RECON_JWT_SECRET (or jwt_secret in recon.yml) to authenticate requests.

By default, database migrations are run on startup. Use --no-migrate to skip.
The configuration file is watched and reloaded when it changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		fixture, _ := cmd.Flags().GetString("fixture")
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")

		if err := runServer(host, port, fixture, !noMigrate && fixture == ""); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().String("fixture", "", "serve a JSON fixture instead of the database")
}

func runServer(host, port, fixture string, migrateFirst bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateFirst {
		fmt.Println("Running database migrations...")
		if err := runMigrations(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	a, err := newApp(ctx, appOptions{Fixture: fixture})
	if err != nil {
		return err
	}
	defer a.Close()

	s := server.NewServer(config.Get, a.service, a.health, a.resolutions, a.logger, host, port)
	endpoints.RegisterAll(s)

	go func() {
		err := watchConfig(ctx, a.cfg.ConfigFilePath(), a.logger, func(cfg *config.ReconConfig) {
			applyLogLevel(a.logger, cfg.LogLevel)
		})
		if err != nil {
			a.logger.WithError(err).Warn("configuration file is not watched")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("Running server at http://%s:%s...", host, port)
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func applyLogLevel(logger *logrus.Logger, level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("ignoring invalid log level")
		return
	}
	if parsed != logger.GetLevel() {
		logger.SetLevel(parsed)
		logger.WithField("log_level", level).Info("log level changed")
	}
}
