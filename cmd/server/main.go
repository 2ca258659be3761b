package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/istakip/internal/adapters/http/gateway"
	"github.com/ogurasousui/istakip/internal/adapters/repository/postgres"
	"github.com/ogurasousui/istakip/internal/core/finance"
	"github.com/ogurasousui/istakip/internal/platform/config"
	pg "github.com/ogurasousui/istakip/internal/platform/db/postgres"
	"github.com/ogurasousui/istakip/internal/platform/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	snapshotRepo := postgres.NewSnapshotRepository(dbPool, postgres.WithLogger(logger.With(slog.String("component", "repository"))))
	reportSvc := finance.NewService(snapshotRepo, nil, pg.NewTransactionManager(dbPool), finance.WithLogger(logger.With(slog.String("component", "finance"))))
	grpcServer := server.New(cfg.Server.ListenAddr, reportSvc)

	gw := gateway.New(gateway.Options{
		BackendOrigin:     cfg.Gateway.BackendOrigin,
		MountPrefix:       cfg.Gateway.MountPrefix,
		StripPortArtifact: *cfg.Gateway.StripPortArtifact,
		UpdateTimeout:     cfg.Gateway.UpdateTimeout,
		DefaultTimeout:    cfg.Gateway.DefaultTimeout,
		Logger:            logger.With(slog.String("component", "gateway")),
	})
	httpServer := server.NewHTTP(cfg.Gateway.ListenAddr, gw.Router())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("gRPC server listening on %s", cfg.Server.ListenAddr)
		return grpcServer.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("gateway listening on %s (backend %s)", cfg.Gateway.ListenAddr, cfg.Gateway.BackendOrigin)
		return httpServer.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
