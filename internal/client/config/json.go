package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskjournal/internal/flagx"
	"github.com/dmitrijs2005/taskjournal/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is the on-disk shape of the configuration file. Absent fields
// keep the value already in Config.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabasePath       string         `json:"database_path"`
	Username           string         `json:"username"`
	PageSize           int            `json:"page_size"`
	PushBatchSize      int            `json:"push_batch_size"`
	MaxConflictRetries *int           `json:"max_conflict_retries"`
	ProdID             string         `json:"prodid"`
	LogFile            *string        `json:"log_file"`
	LogLevel           string         `json:"log_level"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays the file named by -c/--config, if any. The file may
// contain comments and trailing commas.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.ServerEndpointAddr, c.ServerEndpointAddr)
	setString(&config.DatabasePath, c.DatabasePath)
	setString(&config.Username, c.Username)
	if c.PageSize > 0 {
		config.PageSize = c.PageSize
	}
	if c.PushBatchSize > 0 {
		config.PushBatchSize = c.PushBatchSize
	}
	if c.MaxConflictRetries != nil {
		config.MaxConflictRetries = *c.MaxConflictRetries
	}
	setString(&config.ProdID, c.ProdID)
	if c.LogFile != nil {
		config.LogFile = *c.LogFile
	}
	if c.LogLevel != "" {
		if err := config.LogLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
