package factory

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/savebridge/internal/services/auth"
	"github.com/mcoot/savebridge/internal/services/savedgames"
	redisstorage "github.com/mcoot/savebridge/internal/storage/redis"
)

// ServiceEnv is the savecloud service configuration read from the environment
type ServiceEnv struct {
	Host            string        `env:"SAVECLOUD_HOST"`
	Port            int           `env:"SAVECLOUD_PORT"             envDefault:"8080"`
	LogLevel        string        `env:"SAVECLOUD_LOG_LEVEL"        envDefault:"info"`
	StorageType     string        `env:"STORAGE_TYPE"               envDefault:"memory"`
	RedisURL        string        `env:"REDIS_URL"`
	RedisPoolSize   int           `env:"REDIS_POOL_SIZE"            envDefault:"10"`
	SlotTTL         time.Duration `env:"SAVECLOUD_SLOT_TTL"`
	SessionDuration time.Duration `env:"SESSION_DURATION"           envDefault:"24h"`
	CacheTTL        time.Duration `env:"SAVECLOUD_CACHE_TTL"        envDefault:"5s"`
	CacheSize       int           `env:"SAVECLOUD_CACHE_SIZE"       envDefault:"1024"`
	SessionSweep    time.Duration `env:"SAVECLOUD_SESSION_SWEEP"    envDefault:"10m"`
}

// LoadServiceEnv parses ServiceEnv from the process environment
func LoadServiceEnv() (ServiceEnv, error) {
	var cfg ServiceEnv
	if err := env.Parse(&cfg); err != nil {
		return ServiceEnv{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Config converts the environment into a factory Config
func (e ServiceEnv) Config() (Config, error) {
	cfg := Config{
		StorageType:      e.StorageType,
		AuthConfig:       auth.Config{SessionDuration: e.SessionDuration},
		SavedGamesConfig: &savedgames.Config{CacheTTL: e.CacheTTL, CacheSize: e.CacheSize},
	}

	if e.StorageType == StorageTypeRedis {
		if e.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=%s", StorageTypeRedis)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = e.RedisURL
		if e.RedisPoolSize > 0 {
			redisCfg.PoolSize = e.RedisPoolSize
		}
		redisCfg.SlotTTL = e.SlotTTL
		cfg.RedisConfig = &redisCfg
	}

	return cfg, nil
}
