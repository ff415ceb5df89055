package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/savebridge/internal/dependencies/clock"
	"github.com/mcoot/savebridge/internal/dependencies/random"
	"github.com/mcoot/savebridge/internal/services/auth"
	"github.com/mcoot/savebridge/internal/services/savedgames"
	"github.com/mcoot/savebridge/internal/storage"
	"github.com/mcoot/savebridge/internal/storage/memory"
	redisstorage "github.com/mcoot/savebridge/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains the wired cloud save service
type App struct {
	// Storage
	Storage storage.CloudStorage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService       *auth.Service
	SavedGamesService *savedgames.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// SavedGamesConfig holds configuration for the saved games service (optional)
	// If nil, defaults to savedgames.DefaultConfig(). A zero CacheTTL disables the read cache.
	SavedGamesConfig *savedgames.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := orNopLogger(cfg.Logger)

	// Create storage based on type
	var store storage.CloudStorage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	savedGamesCfg := savedgames.DefaultConfig()
	if cfg.SavedGamesConfig != nil {
		savedGamesCfg = *cfg.SavedGamesConfig
	}

	return newWithDependencies(store, clock.New(), random.New(), authCfg, savedGamesCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.CloudStorage, clk clock.Clock, rnd random.Random, authCfg auth.Config, savedGamesCfg savedgames.Config, logger *slog.Logger) *App {
	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		AuthService:       auth.New(store, clk, rnd, authCfg, logger.With(slog.String("service", "auth"))),
		SavedGamesService: savedgames.New(store, clk, savedGamesCfg, logger.With(slog.String("service", "savedgames"))),
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}

func orNopLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return logger
}
