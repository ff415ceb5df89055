package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mcoot/savebridge/internal/dependencies/clock"
	"github.com/mcoot/savebridge/internal/platform"
	"github.com/mcoot/savebridge/internal/platform/embedded"
	"github.com/mcoot/savebridge/internal/platform/httpclient"
	"github.com/mcoot/savebridge/internal/services/savemanager"
	"github.com/mcoot/savebridge/internal/storage"
	"github.com/mcoot/savebridge/internal/storage/memory"
	"github.com/mcoot/savebridge/internal/storage/sqlite"
)

// Local storage type constants
const (
	LocalStorageNone   = "none"
	LocalStorageMemory = "memory"
	LocalStorageSQLite = "sqlite"
)

// ClientConfig holds configuration for a save manager client
type ClientConfig struct {
	// ServerURL is the savecloud base URL
	ServerURL string
	// Token restores a previous session (optional)
	Token string
	// LocalStorageType selects the local store ("none", "memory" or "sqlite")
	// If empty, defaults to "sqlite"
	LocalStorageType string
	// SQLitePath is the database file used when LocalStorageType is "sqlite"
	SQLitePath string
	// Manager configures the save manager (slot name, offline behaviour)
	Manager savemanager.Config
	// Display receives status and counter texts (optional)
	Display savemanager.Display
	// Logger is the client logger (optional)
	Logger *slog.Logger
}

// Client is a save manager wired to a remote savecloud service
type Client struct {
	Platform *httpclient.Platform
	Local    storage.LocalStorage
	Display  savemanager.Display
	Manager  *savemanager.Manager
}

// NewClient wires a save manager against a remote service. A saved token is
// restored; a rejected token leaves the client signed out.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	logger := orNopLogger(cfg.Logger)

	local, err := OpenLocalStorage(ctx, cfg.LocalStorageType, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	p := httpclient.New(cfg.ServerURL, cfg.Token, logger.With(slog.String("component", "platform")))
	if cfg.Token != "" {
		if err := p.Restore(ctx); err != nil {
			logger.Debug("could not restore session", slog.String("error", err.Error()))
		}
	}

	display := cfg.Display
	if display == nil {
		display = savemanager.NewTextDisplay()
	}

	return &Client{
		Platform: p,
		Local:    local,
		Display:  display,
		Manager:  NewManager(p, local, display, clock.New(), cfg.Manager, logger),
	}, nil
}

// NewManager wires a save manager onto any platform
func NewManager(p platform.Platform, local storage.LocalStorage, display savemanager.Display, clk clock.Clock, cfg savemanager.Config, logger *slog.Logger) *savemanager.Manager {
	return savemanager.New(p, local, display, clk, cfg, orNopLogger(logger).With(slog.String("component", "savemanager")))
}

// NewEmbeddedPlatform runs the app's services in-process behind the Platform interface
func (a *App) NewEmbeddedPlatform(logger *slog.Logger) *embedded.Platform {
	return embedded.New(a.AuthService, a.SavedGamesService, orNopLogger(logger))
}

// OpenLocalStorage opens the local player data store.
// "none" returns a nil store, which leaves the save manager memory-only.
func OpenLocalStorage(ctx context.Context, storageType, sqlitePath string) (storage.LocalStorage, error) {
	if storageType == "" {
		storageType = LocalStorageSQLite
	}

	switch storageType {
	case LocalStorageNone:
		return nil, nil
	case LocalStorageMemory:
		return memory.New(), nil
	case LocalStorageSQLite:
		if sqlitePath == "" {
			return nil, errors.New("SQLitePath required when LocalStorageType is sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := sqlite.Open(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid LocalStorageType %q: must be 'none', 'memory' or 'sqlite'", storageType)
	}
}
