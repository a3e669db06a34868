package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/chess-relay/internal/config"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
	"github.com/rocketscienceinc/chess-relay/internal/repository/storage"
	"github.com/rocketscienceinc/chess-relay/internal/service"
	"github.com/rocketscienceinc/chess-relay/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

type sessionStore struct {
	players repository.PlayerRepository
	games   repository.GameRepository
	queue   repository.QueueRepository
	results repository.ResultRepository

	ping  func(ctx context.Context) error
	close func() error
}

func (that *sessionStore) Ping(ctx context.Context) error {
	return that.ping(ctx)
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, err := openStore(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = store.close(); err != nil {
			log.Error("could not close session store", "error", err)
		}
	}()

	log.Info("Session store ready", "storage", conf.Storage, "strict_moves", conf.Session.StrictMoves)

	registry := service.NewRegistry(logger, store.players, conf.Session.MaxRegisterAttempts)
	matchmaker := service.NewMatchmaker(logger, store.players, store.games, store.queue)
	relay := service.NewRelay(logger, store.players, store.games, store.queue, store.results, service.RelayOptions{
		StrictMoves: conf.Session.StrictMoves,
		ResultGrace: conf.Session.ResultGrace,
	})

	janitor := service.NewJanitor(logger, store.games, store.queue, store.results,
		conf.Session.IdleTimeout, conf.Session.SweepInterval)
	go janitor.Run(ctx)

	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers := rest.NewHandlers(logger, registry, matchmaker, relay)
	router := rest.NewRouter(logger, handlers, rest.NewHealthHandler(store))
	server := rest.NewServer(logger, conf.HTTPPort, router)

	log.Info("Starting HTTP server", "port", conf.HTTPPort)

	if err = server.Start(ctx); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func openStore(ctx context.Context, conf *config.Config) (*sessionStore, error) {
	if conf.Storage == config.StorageMemory {
		return &sessionStore{
			players: repository.NewMemoryPlayerRepository(),
			games:   repository.NewMemoryGameRepository(),
			queue:   repository.NewMemoryQueueRepository(),
			results: repository.NewMemoryResultRepository(),
			ping:    func(context.Context) error { return nil },
			close:   func() error { return nil },
		}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	client := redisStorage.Connection
	ttl := conf.Session.IdleTimeout

	return &sessionStore{
		players: repository.NewPlayerRepository(client),
		games:   repository.NewGameRepository(client, ttl),
		queue:   repository.NewQueueRepository(client, ttl),
		results: repository.NewResultRepository(client),
		ping:    redisStorage.Ping,
		close:   redisStorage.Close,
	}, nil
}
