// Package config loads runtime configuration for the task CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given by -c/--config. Comments are allowed.
//  3. Persistent command flags bound with (*Config).BindFlags.
//
// Example file:
//
//	{
//	  // journal server
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "page_size": 100,
//	  "request_timeout": "20s",
//	}
//
// Passwords are never read from the file. Password and EncryptionPassword
// look them up in the environment; the CLI prompts otherwise.
package config
