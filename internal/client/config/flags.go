package config

import (
	"log/slog"

	"github.com/spf13/pflag"
)

// BindFlags registers the CLI's persistent flags on fs with the current
// values as defaults.
//
//	-c, --config           path to JSON config file
//	-a, --address          server host:port
//	    --db               local database file
//	-u, --user             account name
//	    --page-size        entries per fetch
//	    --push-batch       entries per push
//	    --conflict-retries retries after a concurrent push
//	    --prodid           PRODID of serialized tasks
//	    --log-file         log file, "" to disable
//	    --log-level        debug, info, warn or error
//	    --timeout          per-request timeout
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// parsed early by LoadConfig; registered so the command line accepts it
	fs.StringP("config", "c", "", "path to JSON config file")

	fs.StringVarP(&c.ServerEndpointAddr, "address", "a", c.ServerEndpointAddr, "server address and port")
	fs.StringVar(&c.DatabasePath, "db", c.DatabasePath, "local database file")
	fs.StringVarP(&c.Username, "user", "u", c.Username, "account name")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "entries per fetch")
	fs.IntVar(&c.PushBatchSize, "push-batch", c.PushBatchSize, "entries per push")
	fs.IntVar(&c.MaxConflictRetries, "conflict-retries", c.MaxConflictRetries, "retries after a concurrent push")
	fs.StringVar(&c.ProdID, "prodid", c.ProdID, "PRODID of serialized tasks")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "log file, empty to disable")
	fs.Var((*levelValue)(&c.LogLevel), "log-level", "debug, info, warn or error")
	fs.DurationVar(&c.RequestTimeout, "timeout", c.RequestTimeout, "per-request timeout")
}

type levelValue slog.Level

func (l *levelValue) String() string { return (*slog.Level)(l).String() }

func (l *levelValue) Set(s string) error { return (*slog.Level)(l).UnmarshalText([]byte(s)) }

func (l *levelValue) Type() string { return "level" }
