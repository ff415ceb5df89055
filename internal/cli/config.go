package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	Token        string
	TokenFile    string
	ConfigFile   string
	LocalStorage string
	DBPath       string
	SlotName     string
	Offline      string
	Output       string
	Verbose      bool
}

// fileConfig is the TOML layout of the config file
type fileConfig struct {
	Server       string `toml:"server"`
	TokenFile    string `toml:"token_file"`
	LocalStorage string `toml:"local_storage"`
	DBPath       string `toml:"db_path"`
	Slot         string `toml:"slot"`
	Offline      string `toml:"offline"`
	Output       string `toml:"output"`
}

// envKeys maps flag names to the environment variables that can set them
var envKeys = map[string]string{
	"server":        "SAVEBRIDGE_SERVER",
	"token":         "SAVEBRIDGE_TOKEN",
	"token-file":    "SAVEBRIDGE_TOKEN_FILE",
	"config":        "SAVEBRIDGE_CONFIG",
	"local-storage": "SAVEBRIDGE_LOCAL_STORAGE",
	"db":            "SAVEBRIDGE_DB",
	"slot":          "SAVEBRIDGE_SLOT",
	"offline":       "SAVEBRIDGE_OFFLINE",
}

// DefaultConfig returns a Config with defaults, overridden by the environment
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault(envKeys["server"], "http://localhost:8080"),
		Token:        os.Getenv(envKeys["token"]),
		TokenFile:    getEnvOrDefault(envKeys["token-file"], defaultPath("token")),
		ConfigFile:   getEnvOrDefault(envKeys["config"], defaultPath("config.toml")),
		LocalStorage: getEnvOrDefault(envKeys["local-storage"], "sqlite"),
		DBPath:       getEnvOrDefault(envKeys["db"], defaultPath("player.db")),
		SlotName:     getEnvOrDefault(envKeys["slot"], "SaveGame"),
		Offline:      getEnvOrDefault(envKeys["offline"], "local"),
		Output:       "text",
		Verbose:      false,
	}
}

// LoadFile applies the TOML config file. Values already set by a flag or the
// environment (explicit[flag] == true) are kept. A missing file is not an error.
func (c *Config) LoadFile(explicit map[string]bool) error {
	if c.ConfigFile == "" {
		return nil
	}

	b, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", c.ConfigFile, err)
	}

	set := func(flag, value string, target *string) {
		if value != "" && !explicit[flag] {
			*target = value
		}
	}
	set("server", fc.Server, &c.ServerURL)
	set("token-file", fc.TokenFile, &c.TokenFile)
	set("local-storage", fc.LocalStorage, &c.LocalStorage)
	set("db", fc.DBPath, &c.DBPath)
	set("slot", fc.Slot, &c.SlotName)
	set("offline", fc.Offline, &c.Offline)
	set("output", fc.Output, &c.Output)
	return nil
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0o600)
}

// ClearToken forgets the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".savebridge", name)
	}
	return filepath.Join(home, ".savebridge", name)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
