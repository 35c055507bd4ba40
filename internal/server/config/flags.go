package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// parseFlags overlays command-line flags.
//
//	-a, --address        gRPC bind address (e.g. ":50051")
//	-d, --dsn            PostgreSQL DSN
//	-s, --secret         JWT HMAC secret key
//	-t, --access-ttl     access token validity (e.g. "5m")
//	-r, --refresh-ttl    refresh token validity
//	    --max-fetch      FetchEntries page cap
//	    --log-level      debug, info, warn or error
//	-u, --s3-access-key  S3 access key id
//	-p, --s3-secret-key  S3 secret access key
//	-b, --s3-bucket      S3 bucket for archived journals
//	-g, --s3-region      S3 region
//	-e, --s3-endpoint    S3 base endpoint (e.g. "http://127.0.0.1:9000/")
func parseFlags(config *Config, args []string) error {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)

	var configPath, logLevel string
	fs.StringVarP(&configPath, "config", "c", "", "path to JSON config file")

	fs.StringVarP(&config.EndpointAddrGRPC, "address", "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVarP(&config.DatabaseDSN, "dsn", "d", config.DatabaseDSN, "database DSN")
	fs.StringVarP(&config.SecretKey, "secret", "s", config.SecretKey, "JWT secret key")
	fs.DurationVarP(&config.AccessTokenValidityDuration, "access-ttl", "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVarP(&config.RefreshTokenValidityDuration, "refresh-ttl", "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.IntVar(&config.MaxFetchLimit, "max-fetch", config.MaxFetchLimit, "maximum entries per fetch")
	fs.StringVar(&logLevel, "log-level", config.LogLevel.String(), "log level")

	fs.StringVarP(&config.S3AccessKeyID, "s3-access-key", "u", config.S3AccessKeyID, "S3 access key id")
	fs.StringVarP(&config.S3SecretAccessKey, "s3-secret-key", "p", config.S3SecretAccessKey, "S3 secret access key")
	fs.StringVarP(&config.S3Bucket, "s3-bucket", "b", config.S3Bucket, "S3 bucket for archived journals")
	fs.StringVarP(&config.S3Region, "s3-region", "g", config.S3Region, "S3 region")
	fs.StringVarP(&config.S3BaseEndpoint, "s3-endpoint", "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if err := config.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if config.MaxFetchLimit <= 0 {
		return fmt.Errorf("parse flags: max-fetch must be positive, got %d", config.MaxFetchLimit)
	}
	return nil
}
