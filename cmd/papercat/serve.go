package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/papercat/papercat/internal/catalog"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:5000)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog listing and PDFs over HTTP",
	Long: `Start the catalog web service.

Routes:
  GET /?page=N                 HTML listing, 20 publications per page
  GET /api/publications?page=N the same page as JSON
  GET /pdf/<filename>          a downloaded PDF
  GET /healthz                 liveness check

Stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := mustNewLogger(cfg)
	defer log.Sync()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if _, err := os.Stat(cfg.DBPath); err != nil {
		log.Warn("catalog database not found, listing will report an error", "path", cfg.DBPath)
	}

	svc := catalog.NewService(cfg.DBPath, cfg.PDFDir)
	srv := &http.Server{
		Addr:              addr,
		Handler:           svc.Handler(log),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx := cmd.Context()
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", addr, "db", cfg.DBPath, "pdf_dir", cfg.PDFDir)
		if humanOutput {
			outputHuman("Serving catalog on http://%s\n", addr)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			exitWithError(ExitError, "server: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("server stopped")
	return nil
}
