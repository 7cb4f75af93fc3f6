package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"github.com/olyamironova/escrow-engine/internal/adapter/cache"
	"github.com/olyamironova/escrow-engine/internal/adapter/in_memory"
	"github.com/olyamironova/escrow-engine/internal/adapter/pg"
	"github.com/olyamironova/escrow-engine/internal/adapter/pubsub"
	"github.com/olyamironova/escrow-engine/internal/api/http"
	"github.com/olyamironova/escrow-engine/internal/core"
	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/infra"
	"github.com/olyamironova/escrow-engine/internal/port"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := infra.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(infra.NewLogger(cfg))

	ctx := context.Background()
	escrow := domain.Address(cfg.Engine.EscrowAccount)

	var repo port.Repository
	if cfg.Storage.PostgresDSN != "" {
		pgRepo, err := pg.NewPgRepo(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		defer pgRepo.Close(ctx)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		repo = pgRepo
	} else {
		slog.Warn("postgres dsn not set, state will not survive restarts")
		repo = in_memory.NewMemoryRepo()
	}

	var readCache port.Cache
	var events port.EventSink
	if cfg.Storage.RedisAddr != "" {
		ttl := time.Duration(cfg.Storage.CacheTTLSec) * time.Second
		if ttl == 0 {
			ttl = 5 * time.Minute
		}
		channel := cfg.Storage.EventChannel
		if channel == "" {
			channel = "escrow:events"
		}
		readCache = cache.NewRedisCache(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB, ttl)
		events = pubsub.NewRedisPublisher(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB, channel)
	} else {
		slog.Warn("redis addr not set, using in-process cache and event sink")
		readCache = in_memory.NewCache()
		events = in_memory.NewSink()
	}

	// Value ledger and asset registry are external systems; the in-process
	// implementations stand in for them in local deployments.
	ledger := in_memory.NewLedger(escrow)
	registry := in_memory.NewRegistry()
	settings := in_memory.NewSettings(
		cfg.Engine.FeeRateBps,
		cfg.Engine.TreasuryFeeRateBps,
		domain.Address(cfg.Engine.TreasuryAddress),
		domain.Address(cfg.Engine.RewardPoolAddress),
	)

	market := core.NewMarket(escrow, ledger, registry, settings, repo, readCache, events)
	lobbies := core.NewLobbyEngine(escrow, ledger, repo, readCache, events, cfg.MeadRate())

	if err := market.LoadFromRepo(ctx); err != nil {
		log.Fatalf("failed to load orders: %v", err)
	}
	if err := lobbies.LoadFromRepo(ctx); err != nil {
		log.Fatalf("failed to load lobbies: %v", err)
	}

	server := http.NewHTTPServer(market, lobbies)
	slog.Info("starting HTTP server", slog.String("addr", cfg.Server.Addr))
	if err := server.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
