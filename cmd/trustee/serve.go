package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cclaudio/trustee/internal/config"
	"github.com/cclaudio/trustee/internal/controlplane"
	"github.com/cclaudio/trustee/internal/listener"
	"github.com/cclaudio/trustee/internal/observability"
	"github.com/cclaudio/trustee/internal/plugin"
	"github.com/cclaudio/trustee/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the resource and admin HTTP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	logger.Infow("starting trustee", "http_addr", cfg.Server.HTTPAddr, "admin_addr", cfg.Server.AdminAddr)

	metrics := observability.NewMetrics()

	mgr, err := plugin.NewManager(cfg.Repository, logger.Named("plugin"))
	if err != nil {
		return fmt.Errorf("initialize plugins: %w", err)
	}

	rtr, err := router.NewRouter(cfg.Server, mgr, metrics, logger.Named("router"))
	if err != nil {
		_ = mgr.Close(context.Background())
		return fmt.Errorf("initialize router: %w", err)
	}

	adminMux := http.NewServeMux()
	controlplane.RegisterAdminHandlers(adminMux, metrics, cfg, mgr, logger)

	dataSrv := listener.NewServer("data", cfg.Server.HTTPAddr, rtr, logger)
	adminSrv := listener.NewServer("admin", cfg.Server.AdminAddr, adminMux, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(dataSrv.Start)
	g.Go(adminSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(dataSrv.Shutdown(sctx), adminSrv.Shutdown(sctx), mgr.Close(sctx))
	})
	return g.Wait()
}
