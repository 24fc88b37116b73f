package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/square-key-labs/voicebridge-ai/src/config"
	"github.com/square-key-labs/voicebridge-ai/src/logger"
	"github.com/square-key-labs/voicebridge-ai/src/realtime"
	"github.com/square-key-labs/voicebridge-ai/src/search"
	"github.com/square-key-labs/voicebridge-ai/src/transports"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	logger.Init()
	log := logger.WithPrefix("Main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	searchClient := search.NewClient(search.ClientConfig{
		Endpoint:              cfg.SearchEndpoint,
		APIKey:                cfg.SearchAPIKey,
		Index:                 cfg.SearchIndex,
		SemanticConfiguration: cfg.SearchSemanticConf,
	})

	server := transports.NewServer(transports.ServerConfig{
		Port: cfg.Port,
		Realtime: realtime.ConnConfig{
			Endpoint: cfg.OpenAIEndpoint,
			APIKey:   cfg.OpenAIAPIKey,
		},
		Session: realtime.SessionConfig{
			Voice: cfg.Voice,
		},
	}, searchClient)

	if err := server.Start(); err != nil {
		log.Error("Failed to start server: %v", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down")
	if err := server.Stop(); err != nil {
		log.Error("Shutdown error: %v", err)
	}
}
