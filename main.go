package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/api"
	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/judgegodwins/chess-relay/ws"
	"go.uber.org/zap"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal(err)
	}

	logger, err := util.NewLogger(config)

	if err != nil {
		log.Fatal(err)
	}

	defer logger.Sync()

	if config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := ws.NewRegistry(game.ChessOracle{}, logger)
	server := api.NewServer(config, registry, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
