package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vidgate/vidgate/internal"
)

// main() is the entry point to the program. Configuration is sourced from
// an optional local .env file, an optional YAML file pointed at by
// VIDGATE_CONFIG, and the environment.
func main() {
	godotenv.Load()

	config := internal.VidgateConfig{}
	if configPath := os.Getenv("VIDGATE_CONFIG"); configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			log.Panicf("Failed to load VidGate configuration - %v\n", err.Error())
		}
	} else if err := config.LoadFromEnv(); err != nil {
		log.Panicf("Failed to load VidGate configuration - %v\n", err.Error())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Panicf("Failed to run VidGate - %v\n", err.Error())
	}
}
