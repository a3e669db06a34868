package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/rocketscienceinc/chess-relay/internal/autoplay"
	"github.com/rocketscienceinc/chess-relay/pkg/client"
)

type config struct {
	ServerURL    string        `env:"RELAY_URL" env-default:"http://localhost:8080"`
	PollInterval time.Duration `env:"RELAY_POLL_INTERVAL" env-default:"500ms"`
	MaxMoves     int           `env:"RELAY_MAX_MOVES" env-default:"40"`
	LogLevel     string        `env:"LOG_LEVEL" env-default:"info"`
}

func main() {
	_ = godotenv.Load()

	var conf config
	if err := cleanenv.ReadEnv(&conf); err != nil {
		slog.Error("failed to read config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(conf.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(conf.ServerURL, client.WithPollInterval(conf.PollInterval))
	player := autoplay.NewPlayer(logger, c, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), conf.MaxMoves)

	outcome, err := player.Play(ctx)
	if err != nil {
		logger.Error("game aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("game over", "outcome", string(outcome))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}

	return l
}
