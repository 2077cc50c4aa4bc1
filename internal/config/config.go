package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	ErrMissingToken    = errors.New("DISCORD_TOKEN is required")
	ErrMissingClientID = errors.New("CLIENT_ID is required")
	ErrUnknownDriver   = errors.New("unknown storage driver")
	ErrMissingDSN      = errors.New("DATABASE_URL is required for the postgres driver")
)

// Config is the process configuration, read from the environment.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	ClientID     string `env:"CLIENT_ID"`
	GuildID      string `env:"GUILD_ID"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"file"`
	LedgerPath    string `env:"LEDGER_PATH"    envDefault:"./data/gastos.json"`
	DatabaseURL   string `env:"DATABASE_URL"`

	BackupDir       string        `env:"BACKUP_DIR"       envDefault:"./data/backups"`
	BackupInterval  time.Duration `env:"BACKUP_INTERVAL"  envDefault:"24h"`
	BackupRetention int           `env:"BACKUP_RETENTION" envDefault:"30"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"ledger_events"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
}

// Load reads an optional .env file and then parses the environment.
// Variables already present in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validateStorage(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireDiscord reports whether the Discord credentials are present.
func (c Config) RequireDiscord() error {
	var errs []error
	if c.DiscordToken == "" {
		errs = append(errs, ErrMissingToken)
	}
	if c.ClientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	return errors.Join(errs...)
}

func (c Config) validateStorage() error {
	switch c.StorageDriver {
	case DriverFile, DriverMemory:
		return nil
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDSN
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StorageDriver)
	}
}
