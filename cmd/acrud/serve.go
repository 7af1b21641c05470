package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/dexit/ACRUD/internal/web"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validate and save API over HTTP",
	Long: `Start the JSON HTTP API.

Routes:
  GET  /api/tables
  GET  /api/tables/{table}
  POST /api/tables/{table}/validate
  POST /api/tables/{table}/save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sess, err := openSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		addr := cfg.Server.Addr()
		if serveAddr != "" {
			addr = serveAddr
		}

		opts := web.DefaultOptions()
		opts.RateLimit = cfg.Server.RateLimit
		opts.RateBurst = cfg.Server.RateBurst
		server := web.NewServer(sess.engine, opts)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(addr)
		}()

		printInfo("Schema source: %s", sess.source)
		printSuccess("Listening on %s", addr)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownDuration())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		slog.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.host and server.port)")
	rootCmd.AddCommand(serveCmd)
}
