package main

import (
	"context"
	"time"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/db"
	"github.com/chatlink/anonchat/internal/logger"
	"github.com/chatlink/anonchat/internal/server"
	"github.com/chatlink/anonchat/internal/service/admin"
	"github.com/chatlink/anonchat/internal/service/matchmaking"
	"github.com/chatlink/anonchat/internal/service/moderation"
	"github.com/chatlink/anonchat/internal/service/profile"
	"github.com/chatlink/anonchat/internal/service/referral"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	appCtx := app.New(database, redisCache, log)

	engine := matchmaking.NewService(appCtx, cfg, moderation.NewFilter())
	referrals := referral.NewService(appCtx)
	profiles := profile.NewService(appCtx, referrals)
	admins := admin.NewService(appCtx, cfg, engine)

	registrars := []server.Registrar{
		matchmaking.NewRegistrar(engine),
		profile.NewRegistrar(profiles),
		admin.NewRegistrar(admins),
	}

	// Janitors: auto-disconnect idle pairs, purge expired messages.
	janitorCtx, stopJanitors := context.WithCancel(context.Background())
	defer stopJanitors()
	go runJanitors(janitorCtx, cfg, engine)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}

// runJanitors periodically closes inactive pairs and prunes the message
// log until the context is cancelled.
func runJanitors(ctx context.Context, cfg *config.Config, engine *matchmaking.Service) {
	log := logger.L()

	idleTicker := time.NewTicker(time.Minute)
	defer idleTicker.Stop()
	purgeTicker := time.NewTicker(24 * time.Hour)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idleTicker.C:
			if closed, err := engine.CloseInactivePairs(ctx); err != nil {
				log.Error("inactivity janitor failed", "err", err)
			} else if closed > 0 {
				log.Info("closed inactive pairs", "count", closed)
			}
		case <-purgeTicker.C:
			if purged, err := engine.PurgeOldMessages(ctx); err != nil {
				log.Error("message purge failed", "err", err)
			} else if purged > 0 {
				log.Info("purged old messages", "count", purged)
			}
		}
	}
}
