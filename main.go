package main

import (
	"net/http"

	"ruangkerja/config"
	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/service"
	"ruangkerja/internal/mcpserver"
	"ruangkerja/pkg/logger"
	"ruangkerja/router"
	"ruangkerja/socket"

	"go.uber.org/zap"
)

func main() {
	cfg, envLoaded, err := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	if err != nil {
		logger.Log.Fatal("Invalid configuration", zap.Error(err))
	}
	if !envLoaded {
		logger.Log.Info("No .env file found, using environment variables from OS")
	}
	if cfg.JWTSecret == "" {
		logger.Log.Warn("JWT_SECRET is not set; every authenticated request will be rejected")
	}

	sessions := service.NewSessions(ai.AcknowledgingProcessor{})

	// The hub mirrors committed changes to each user's open connections.
	hub := socket.NewHub()
	go hub.Run()
	sessions.OnChange(hub.DocumentChanged)

	var mcpHandler http.Handler
	if cfg.MCPEnabled {
		mcpHandler = mcpserver.NewHTTPHandler(mcpserver.NewServer(sessions), "/mcp")
	}

	handler := router.Setup(cfg, sessions, hub, mcpHandler)

	logger.Log.Info("Document server listening", zap.String("addr", cfg.Addr()))
	if err := http.ListenAndServe(cfg.Addr(), handler); err != nil {
		logger.Log.Fatal("Server stopped", zap.Error(err))
	}
}
