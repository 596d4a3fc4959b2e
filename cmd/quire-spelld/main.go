// Command quire-spelld is a dictionary-backed suggestion service for local
// use with quire-demo.
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

	"github.com/iw2rmb/quire"
	"github.com/iw2rmb/quire/internal/config"
	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/internal/metrics"
	"github.com/iw2rmb/quire/internal/spelltest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath, addr string
	cmd := &cobra.Command{
		Use:   "quire-spelld",
		Short: "Serve spelling suggestions over WebSocket",
		Long: `Answers suggestion requests from a fixed dictionary of misspellings.
Connect quire-demo with suggest.url = "ws://<addr>/". Prometheus metrics are
served at /metrics on the same address.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Spelld.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (TOML or YAML)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides spelld.addr)")
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), quire.VersionTag())
		},
	})
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logging.New(level)

	h := spelltest.NewHandler(spelltest.Dictionary(cfg.Spelld.Dictionary))
	h.Logger = log
	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.Handle("/", h)

	srv := &http.Server{
		Addr:              cfg.Spelld.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("serving suggestions", "addr", srv.Addr, "words", len(cfg.Spelld.Dictionary))
		serverErrors <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.DropAll()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		log.Info("stopped")
		return nil
	}
}
