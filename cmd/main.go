package main

import (
	"chat-guard/auth"
	"chat-guard/contract"
	"chat-guard/internal"
	"chat-guard/moderation"
	"chat-guard/observability"
	"chat-guard/repositories"
	"chat-guard/runtime"
	"chat-guard/runtime/workers"
	"chat-guard/services"
	"chat-guard/storage"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"go.uber.org/multierr"
)

// followTimeout bounds the wait for the hub to follow the store at start up.
const followTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves the console on stdin and returns once
// the user quits or a signal is received. Deferred cleanups always run.
func run() (err error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err = env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Key/value backend
	feed, closeFeed, err := openFeed(config, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeFeed())
	}()

	// 3. Store, moderation and services
	messageRepository := repositories.NewMessageRepository(feed, log)
	blockedRepository := repositories.NewBlockedRepository(feed, log)
	userRepository := repositories.NewUserRepository(feed)

	moderator, err := newModerator(config, log)
	if err != nil {
		return err
	}
	engine := moderation.NewEngine(log, config.SpamWindow, config.SpamThreshold)
	messageService, err := services.NewMessageService(log, messageRepository, blockedRepository,
		engine, moderator, config.MaxContentLength)
	if err != nil {
		return err
	}

	authService := services.NewAuthService(log, userRepository, auth.NewTokens(config.AuthSecret, config.AuthTokenDuration))

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = authService.SeedDirectory(ctx, services.DemoAccounts); err != nil {
		return fmt.Errorf("user directory: %w", err)
	}

	// 5. Hub & supervised workers
	hub := runtime.NewHub(log, feed, messageRepository, blockedRepository, runtime.NewRegistry(), config.SinkTimeout)
	monitoring := observability.NewMonitoringManager(log)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(hub, workers.NewHeartbeatWorker(log, hub, engine, monitoring, config.HeartbeatInterval))

	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		sup.Run(ctx)
	}()
	defer func() {
		sup.Stop()
		<-supervised
		log.Info("Workers stopped")
	}()

	// Commands sent before the hub watches the store would never be broadcast
	select {
	case <-hub.Following():
	case <-ctx.Done():
		return nil
	case <-time.After(followTimeout):
		return fmt.Errorf("hub is not following the store after %s", followTimeout)
	}

	// 6. Console
	console := NewConsole(log, os.Stdout, messageService, authService, monitoring, true)
	unsubscribe, err := hub.Subscribe(ctx, console)
	if err != nil {
		return fmt.Errorf("console subscription failed: %w", err)
	}
	defer unsubscribe()

	console.Banner()
	return console.Serve(ctx, os.Stdin)
}

// openFeed returns the Badger backend when BADGER_FILEPATH is set and an
// in-memory one otherwise, with the function releasing it.
func openFeed(config internal.Config, log *slog.Logger) (contract.KeyValueStore, func() error, error) {
	if config.InMemory() {
		log.Info("Using in-memory store, nothing survives a restart")
		return storage.NewMemory(), func() error { return nil }, nil
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, nil, fmt.Errorf("database opening failed: %w", err)
	}
	log.Info("Using Badger store", "path", config.BadgerFilepath)
	return storage.NewBadger(db, log), func() error {
		log.Info("Closing BadgerDB...")
		return db.Close()
	}, nil
}

// newModerator builds the censor from the shipped dictionaries, or from
// CENSORED_WORDS_DIR when set, plus the words of CENSORED_WORDS.
func newModerator(config internal.Config, log *slog.Logger) (moderation.Moderator, error) {
	loader, dir := moderation.DefaultDictionaryLoader()
	if config.CensoredWordsDir != "" {
		loader, dir = moderation.NewDictionaryLoader(os.DirFS(config.CensoredWordsDir)), "."
	}
	dictionary, err := loader.LoadAll(dir)
	if err != nil {
		return moderation.Moderator{}, fmt.Errorf("censored words: %w", err)
	}
	dictionary = dictionary.MergeWords(config.ExtraCensoredWords()...)

	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return moderation.Moderator{}, err
	}
	log.Info("Censored words loaded", "count", len(dictionary.Words), "languages", dictionary.Languages)
	return moderation.NewModerator(dictionary.Words, replacement, log)
}
