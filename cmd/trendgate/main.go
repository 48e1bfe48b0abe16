// Command trendgate serves airfare trend datasets over a bearer-token
// gated JSON-RPC endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonwraymond/trendgate/auth"
	"github.com/jonwraymond/trendgate/config"
	"github.com/jonwraymond/trendgate/dataset"
	"github.com/jonwraymond/trendgate/query"
	"github.com/jonwraymond/trendgate/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		listenAddr string
		dataDir    string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "trendgate",
		Short:         "OAuth-gated airfare trend insight server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "trend data directory (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	keys := auth.NewJWKSKeySource(auth.JWKSConfig{URL: cfg.JWKSURL()})
	verifier := auth.NewVerifier(auth.VerifierConfig{
		Issuer:         cfg.Issuer,
		Audiences:      cfg.Audiences,
		RequiredScopes: cfg.RequiredScopes,
		ResourceURL:    cfg.ResourceURL,
	}, keys)

	srv := server.New(server.Options{
		Gate:   auth.NewGate(verifier),
		Loader: dataset.NewLoader(cfg.DataDir, log.Named("dataset")),
		Engine: query.NewEngine(query.Config{
			DefaultLimit: cfg.DefaultLimit,
			MaxLimit:     cfg.MaxLimit,
		}),
		Logger:  log.Named("server"),
		Metrics: server.NewMetrics(),
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("issuer", cfg.Issuer),
			zap.String("data_dir", cfg.DataDir))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(parsed)
	return zcfg.Build()
}
