package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer logger.Sync()

	a := App{}
	a.Initialize(cfg, logger)
	a.Run(cfg.ListenAddr)
}
