package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/reservoir/engine"
	"github.com/katalvlaran/reservoir/internal/config"
	"github.com/katalvlaran/reservoir/internal/httpapi"
	"github.com/katalvlaran/reservoir/internal/metrics"
	"github.com/katalvlaran/reservoir/internal/runstore"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServer(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			rec := metrics.New(true)
			eng, err := a.engine(engine.WithObserver(rec), engine.WithParallelism(cfg.Parallelism))
			if err != nil {
				return err
			}
			api := httpapi.New(eng, store,
				httpapi.WithMetrics(rec),
				httpapi.WithLogger(a.log.WithName("http")),
				httpapi.WithTimeout(cfg.RequestTimeout),
			)

			return a.listen(ctx, cfg, api.Router())
		},
	}
	config.ServerFlags(cmd.Flags())
	a.solverFlags(cmd.Flags())

	return cmd
}

func (a *app) openStore(ctx context.Context, cfg config.Server) (runstore.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		a.log.Info("run archive in memory")
		return runstore.NewMemoryStore(), func() {}, nil
	}
	pg, err := runstore.OpenPG(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	a.log.Info("run archive in postgres")

	return pg, func() { _ = pg.Close() }, nil
}

func (a *app) listen(ctx context.Context, cfg config.Server, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	a.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
