// Package main provides the authority binary: it owns the inventories and
// the world floor and serves them to predicting clients over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/config"
	"github.com/cory-johannsen/stash/internal/game/floor"
	"github.com/cory-johannsen/stash/internal/game/item"
	"github.com/cory-johannsen/stash/internal/game/transaction"
	"github.com/cory-johannsen/stash/internal/gameserver"
	"github.com/cory-johannsen/stash/internal/observability"
	"github.com/cory-johannsen/stash/internal/scripting"
	"github.com/cory-johannsen/stash/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	seedRoom := flag.String("seed-room", "", "spawn one full stack of every item definition into this room at startup")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Server.Mode != config.ModeAuthority {
		log.Fatalf("config %s: server.mode must be %q for the game server", *configPath, config.ModeAuthority)
	}

	logger, err := observability.NewPeerLogger(cfg)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("grpc_addr", cfg.GameServer.Addr()),
	)

	catalog, err := item.LoadRegistry(cfg.Content.ItemsDir)
	if err != nil {
		logger.Fatal("loading item definitions", zap.String("dir", cfg.Content.ItemsDir), zap.Error(err))
	}
	logger.Info("loaded item definitions", zap.Int("count", catalog.Len()))

	scripts := scripting.NewManager(cfg.Inventory.ScriptInstructionLimit, logger)
	defer scripts.Close()

	invs, err := gameserver.BuildInventories(cfg.Inventory, catalog, scripts, logger)
	if err != nil {
		logger.Fatal("building inventories", zap.Error(err))
	}

	world := floor.NewManager(logger)
	if *seedRoom != "" {
		for _, def := range catalog.All() {
			if _, ok := world.Spawn(*seedRoom, item.NewStack(def.ID, def.MaxStackSize)); !ok {
				logger.Warn("seeding floor item failed", zap.String("item", def.ID))
			}
		}
		logger.Info("seeded floor",
			zap.String("room", *seedRoom),
			zap.Int("items", len(world.ItemsInRoom(*seedRoom))),
		)
	}

	engine := transaction.NewEngine(
		&transaction.Env{Inventories: invs, World: world, Logger: logger},
		transaction.EngineConfig{Role: transaction.RoleAuthority, HistoryLength: cfg.Inventory.HistoryLength},
		nil, logger,
	)
	srv := gameserver.NewInventoryServer(engine, invs, world, logger)
	grpcServer, healthServer := gameserver.NewGRPCServer(srv, logger)

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.GameServer.Addr())
			if err != nil {
				return err
			}
			logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			healthServer.Shutdown()
			grpcServer.GracefulStop()
		},
	})

	if cfg.Inventory.ClaimTTL > 0 {
		lifecycle.Add("claim-sweeper", server.NewTickerService(max(cfg.Inventory.ClaimTTL/2, time.Millisecond), srv.SweepClaims))
	}

	logger.Info("game server ready",
		zap.Duration("startup", time.Since(start)),
		zap.Strings("containers", invs.IDs()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("game server error", zap.Error(err))
	}
}
