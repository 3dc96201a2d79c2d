package main

import (
	"github.com/wfunc/pilegame/config"
	"github.com/wfunc/pilegame/logger"
	"github.com/wfunc/pilegame/persistence"
	"github.com/wfunc/pilegame/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage: postgres when configured, otherwise in-memory.
	// Live room state is process-lifetime either way; the database only
	// holds finished-game records and rule-set presets.
	var db persistence.Database
	if cfg.Database.Enabled {
		pg := cfg.Database.Postgres
		if cfg.Database.Driver == "pq" {
			db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		} else {
			db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Database connection successful.")
	} else {
		db = persistence.NewMemoryDatabase()
		logger.Log.Info("Database disabled, using in-memory records.")
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, db)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
