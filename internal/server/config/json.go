package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskjournal/internal/flagx"
	"github.com/dmitrijs2005/taskjournal/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// accept "1m" style strings or integer nanoseconds. Absent fields keep the
// value already in Config.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	MaxFetchLimit                int            `json:"max_fetch_limit"`
	LogLevel                     string         `json:"log_level"`
	S3AccessKeyID                string         `json:"s3_access_key_id"`
	S3SecretAccessKey            string         `json:"s3_secret_access_key"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
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

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.MaxFetchLimit > 0 {
		config.MaxFetchLimit = c.MaxFetchLimit
	}
	if c.LogLevel != "" {
		if err := config.LogLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

