package main

import (
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/db"
	"github.com/chatlink/anonchat/internal/logger"
)

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("seeding failed", "err", err)
		return
	}
	log.Info("test data seeded")
}
