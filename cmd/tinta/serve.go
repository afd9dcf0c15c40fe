package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tinta/internal/config"
	"tinta/internal/server"
	"tinta/palette"
	"tinta/theme"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the theme server",
	Long:  `Serve the option form plus the /theme, /analyze and /validate endpoints.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	client, cleanup := newFetchClient(cfg, logger)
	defer cleanup()

	// Config validation already rejected unknown names.
	flavor, _ := palette.ParseFlavor(cfg.Theme.Flavor)
	accent, _ := palette.ParseAccent(cfg.Theme.Accent)
	variant, _ := theme.ParseVariant(cfg.Theme.Variant)

	handler := server.New(server.Config{
		OverridesDir: cfg.Server.OverridesDir,
		ThemeTTL:     cfg.Server.ThemeTTL,
		Flavor:       flavor,
		Accent:       accent,
		Variant:      variant,
		Version:      buildVersion,
		Loader:       client,
		Classifier:   newClassifier(cfg, logger),
		Prompts:      loadPrompts(cfg.Classifier.Prompts, logger),
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: handler,
		// Conservative timeouts to avoid slowloris and leaked connections
		// blocking the server
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
