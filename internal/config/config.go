package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string  `yaml:"http-port" env:"HTTP_PORT" env-default:"8080"`
	Storage  string  `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Redis    Redis   `yaml:"redis"`
	Session  Session `yaml:"session"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Session holds the tunables of matchmaking and move relay.
type Session struct {
	// StrictMoves makes the server check turn order and move legality on its own board.
	StrictMoves         bool          `yaml:"strict-moves" env:"SESSION_STRICT_MOVES" env-default:"false"`
	IdleTimeout         time.Duration `yaml:"idle-timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`
	ResultGrace         time.Duration `yaml:"result-grace" env:"SESSION_RESULT_GRACE" env-default:"2m"`
	SweepInterval       time.Duration `yaml:"sweep-interval" env:"SESSION_SWEEP_INTERVAL" env-default:"1m"`
	MaxRegisterAttempts int           `yaml:"max-register-attempts" env:"SESSION_MAX_REGISTER_ATTEMPTS" env-default:"1000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if config.Storage != StorageMemory && config.Storage != StorageRedis {
		return nil, fmt.Errorf("unknown storage %q", config.Storage)
	}

	if err := config.Session.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Session) validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{name: "idle-timeout", value: that.IdleTimeout},
		{name: "result-grace", value: that.ResultGrace},
		{name: "sweep-interval", value: that.SweepInterval},
	}

	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("session %s must be positive, got %s", d.name, d.value)
		}
	}

	if that.MaxRegisterAttempts <= 0 {
		return fmt.Errorf("session max-register-attempts must be positive, got %d", that.MaxRegisterAttempts)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
