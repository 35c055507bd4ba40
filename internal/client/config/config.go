package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	EnvPassword           = "TASKJOURNAL_PASSWORD"
	EnvEncryptionPassword = "TASKJOURNAL_ENCRYPTION_PASSWORD"
)

// Config holds runtime settings for the task CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the journal server.
//   - DatabasePath: local SQLite file.
//   - Username: account used when none was saved by login.
//   - PageSize / PushBatchSize / MaxConflictRetries: sync tuning.
//   - ProdID: PRODID written into every serialized task.
//   - LogFile: rotated log file. Empty disables logging.
type Config struct {
	ServerEndpointAddr string
	DatabasePath       string
	Username           string
	PageSize           int
	PushBatchSize      int
	MaxConflictRetries int
	ProdID             string
	LogFile            string
	LogLevel           slog.Level
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with defaults. Files live under the user config
// directory when it can be resolved, otherwise in the working directory.
func (c *Config) LoadDefaults() {
	dir := "."
	if d, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(d, "taskjournal")
	}

	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = filepath.Join(dir, "client.db")
	c.Username = ""
	c.PageSize = 50
	c.PushBatchSize = 30
	c.MaxConflictRetries = 2
	c.ProdID = "-//taskjournal//taskjournal CLI//EN"
	c.LogFile = filepath.Join(dir, "client.log")
	c.LogLevel = slog.LevelInfo
	c.RequestTimeout = 12 * time.Second
}

// LoadConfig applies defaults, then the JSON file named by -c/--config.
// Flags are bound afterwards with BindFlags so they override both.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that flags or the file could have broken.
func (c *Config) Validate() error {
	switch {
	case c.ServerEndpointAddr == "":
		return errors.New("server address is required")
	case c.DatabasePath == "":
		return errors.New("database path is required")
	case c.PageSize <= 0:
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	case c.PushBatchSize <= 0:
		return fmt.Errorf("push batch size must be positive, got %d", c.PushBatchSize)
	case c.MaxConflictRetries < 0:
		return fmt.Errorf("max conflict retries must not be negative, got %d", c.MaxConflictRetries)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Password returns the account password from the environment, if set.
func Password() ([]byte, bool) {
	return fromEnv(EnvPassword)
}

// EncryptionPassword returns the encryption password from the environment,
// if set.
func EncryptionPassword() ([]byte, bool) {
	return fromEnv(EnvEncryptionPassword)
}

func fromEnv(key string) ([]byte, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil, false
	}
	return []byte(v), true
}
