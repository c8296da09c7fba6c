package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/web3guy0/predimarket-intel/internal/config"
)

func newRunCmd(log zerolog.Logger) *cobra.Command {
	var healthAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "start the engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(log, healthAddr)
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8090", "address for the health endpoint")
	return cmd
}

func runEngine(log zerolog.Logger, healthAddr string) error {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("version", version).Msg("🚀 engine starting")

	e := buildEngine(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)

	healthSrv := &http.Server{Addr: healthAddr, Handler: e.health.Handler()}
	group.Go(func() error {
		log.Info().Str("addr", healthAddr).Msg("health endpoint listening")
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	e.feed.Start()
	e.arbs.Start()

	group.Go(func() error { return e.linkerRefreshLoop(gctx) })
	group.Go(func() error { return e.whaleRebuildLoop(gctx) })
	group.Go(func() error { return e.edgeScanLoop(gctx) })

	log.Info().Msg("✅ all components started")

	<-gctx.Done()
	log.Info().Msg("🛑 shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	e.feed.Stop()
	e.arbs.Stop()
	e.alerts.Close()

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("component exited with error")
	}

	log.Info().Msg("👋 goodbye")
	return nil
}

func (e *engine) linkerRefreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.LinkerRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.link.Refresh(time.Now())
		}
	}
}

func (e *engine) whaleRebuildLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.WhaleUniverse.RebuildEvery)
	defer ticker.Stop()
	e.whales.RebuildUniverse(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.whales.RebuildUniverse(time.Now())
		}
	}
}

func (e *engine) edgeScanLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.EdgeCacheTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.scanEdges(time.Now())
		}
	}
}
