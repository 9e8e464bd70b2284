package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lamvault/config"
	"lamvault/core/events"
	corestate "lamvault/core/state"
	"lamvault/core/types"
	"lamvault/crypto"
	"lamvault/native/vault"
	"lamvault/observability/logging"
	"lamvault/rpc"
	"lamvault/storage"
)

// slogEmitter forwards committed vault events to the structured log. Event
// emission is observability only; it never influences operation outcomes.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{slog.String("type", evt.EventType())}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for k, v := range payload.Attributes {
				args = append(args, slog.String(k, v))
			}
		}
	}
	e.logger.Info("vault event", args...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("LAMVAULT_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("vaultd", env, cfg.LogFile)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := corestate.NewManager(db)
	if err := applyDevFunding(manager, cfg.DevFund); err != nil {
		logger.Error("Failed to apply dev funding", slog.Any("error", err))
		os.Exit(1)
	}

	engine := vault.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(slogEmitter{logger: logger})

	logger.Info("vault node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
	)

	server := rpc.NewServer(engine, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func applyDevFunding(manager *corestate.Manager, entries []config.DevFundEntry) error {
	for _, entry := range entries {
		addr, err := crypto.DecodeAddress(entry.Address)
		if err != nil {
			return fmt.Errorf("dev fund address %q: %w", entry.Address, err)
		}
		if err := manager.Credit(addr.Bytes(), entry.Amount); err != nil {
			return fmt.Errorf("dev fund credit %q: %w", entry.Address, err)
		}
	}
	return nil
}
