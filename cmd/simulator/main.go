package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/simulator"
)

func run() int {
	filePath := flag.String("file", "match.jsonl", "Path to the match script")
	backendURL := flag.String("backend", "http://localhost:8000/api/v1", "Backend API base URL")
	matchID := flag.Int("match", 0, "Match ID to replay into")
	speed := flag.Float64("speed", 1.0, "Replay speed factor, 0 disables pacing")
	flag.Parse()

	if *matchID <= 0 {
		log.Error("A match ID is required (-match)")
		return 1
	}

	log.Info("Starting Match Simulator",
		zap.String("file", *filePath),
		zap.String("backend_url", *backendURL),
		zap.Int("match_id", *matchID),
		zap.Float64("speed", *speed),
	)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutdown signal received, stopping")
		cancel()
	}()

	events, err := simulator.ParseScript(*filePath)
	if err != nil {
		log.Error("Error parsing script", zap.Error(err))
		return 1
	}
	if len(events) == 0 {
		log.Error("Script contains no events")
		return 1
	}

	replayer := simulator.NewReplayer(*backendURL, *matchID)
	if err := replayer.Replay(ctx, events, *speed); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("Error replaying script", zap.Error(err))
			return 1
		}
	}

	log.Info("Simulator finished successfully")
	return 0
}

func main() {
	// Initialize global logger
	if err := log.Init(true); err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	os.Exit(run())
}
