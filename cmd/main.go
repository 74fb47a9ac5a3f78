package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-system/auth"
	"chat-system/infrastructure/httpapi"
	"chat-system/infrastructure/ws"
	"chat-system/internal"
	"chat-system/moderation"
	"chat-system/observability"
	"chat-system/repositories"
	"chat-system/runtime"
	"chat-system/runtime/workers"
	"chat-system/search"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every deferred cleanup executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Storage (BadgerDB message log, bluge index, JSON directories)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.OpenIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	users, err := repositories.NewUserFileStore(config.UsersFilepath)
	if err != nil {
		return err
	}
	groups, err := repositories.NewGroupFileStore(config.GroupsFilepath)
	if err != nil {
		return err
	}

	// First boot needs an account able to create everything else.
	superHash, err := auth.HashPassword("123")
	if err != nil {
		return err
	}
	if err = users.Bootstrap("super", "super@chat.local", superHash); err != nil {
		return err
	}

	// 3. Messaging core
	censored, err := moderation.LoadCensoredWords()
	if err != nil {
		return fmt.Errorf("loading censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, replacement)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry(log, metrics)
	channelRepository := repositories.NewChannelRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)

	gateway := runtime.NewGateway(
		log, channelRepository, messageRepository, registry, moderator,
		metrics, config.IndexBufferSize, config.MaxContentLength,
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewIndexWorker(index, gateway.IndexEvents(), log),
		workers.NewGCWorker(db, config.GCInterval, log),
		workers.NewTelemetryWorker(log, metrics, config.TelemetryInterval),
	)
	go sup.Run(ctx)

	// 6. HTTP & WebSocket server
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	wsController := ws.NewController(gateway, log, config.SessionBufferSize)
	server := httpapi.NewServer(log, gateway, users, groups, index, issuer, metrics)
	router := server.SetupRouter(config.Mode, wsController)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown did not complete cleanly", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
