// Package config loads runtime configuration for the notesync terminal
// client.
//
// Sources, later ones override earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Example JSON file:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "online_check_interval": "5s",
//	  "flush_interval": "30s",
//	  "database_path": "notesync.db",
//	  "log_file": "notesync.log",
//	  "max_attempts": 8,
//	  "retry_base_delay": "5s",
//	  "retry_max_delay": "10m"
//	}
package config
