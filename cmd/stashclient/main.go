// Package main provides the console client: a predicting peer that applies
// moves locally, forwards every transaction to the authority and resyncs
// from its snapshots.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/config"
	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/item"
	"github.com/cory-johannsen/stash/internal/game/transaction"
	"github.com/cory-johannsen/stash/internal/gameserver"
	"github.com/cory-johannsen/stash/internal/observability"
	"github.com/cory-johannsen/stash/internal/scripting"
	"github.com/cory-johannsen/stash/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/client.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Server.Mode != config.ModeClient {
		log.Fatalf("config %s: server.mode must be %q for the client", *configPath, config.ModeClient)
	}

	logger, err := observability.NewPeerLogger(cfg)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	catalog, err := item.LoadRegistry(cfg.Content.ItemsDir)
	if err != nil {
		logger.Fatal("loading item definitions", zap.String("dir", cfg.Content.ItemsDir), zap.Error(err))
	}

	scripts := scripting.NewManager(cfg.Inventory.ScriptInstructionLimit, logger)
	defer scripts.Close()

	invs, err := gameserver.BuildInventories(cfg.Inventory, catalog, scripts, logger)
	if err != nil {
		logger.Fatal("building inventories", zap.Error(err))
	}

	client, err := gameserver.Dial(cfg.GameServer.Addr(), logger)
	if err != nil {
		logger.Fatal("connecting to game server", zap.Error(err))
	}
	defer client.Close()

	peer := gameserver.NewClientPeer(client,
		&transaction.Env{Inventories: invs, Logger: logger},
		invs.IDs(),
		transaction.EngineConfig{
			Role:          transaction.RolePredicting,
			HistoryLength: cfg.Inventory.HistoryLength,
			Predictive:    cfg.Inventory.Predictive,
		},
		logger,
	)

	syncCtx, cancelSync := context.WithTimeout(context.Background(), 10*time.Second)
	err = peer.Resync(syncCtx)
	cancelSync()
	if err != nil {
		logger.Fatal("initial snapshot", zap.String("addr", cfg.GameServer.Addr()), zap.Error(err))
	}
	logger.Info("connected",
		zap.String("addr", cfg.GameServer.Addr()),
		zap.Strings("containers", invs.IDs()),
		zap.Bool("predictive", cfg.Inventory.Predictive),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	console := gameserver.NewConsole(peer, client, claim.ControllerID(cfg.Server.PeerID), os.Stdin, os.Stdout, cancel)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("sender", &server.FuncService{StartFn: client.Start, StopFn: client.Stop})
	lifecycle.Add("results", &server.FuncService{StartFn: peer.Start, StopFn: peer.Stop})
	lifecycle.Add("console", console)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("client error", zap.Error(err))
	}
}
