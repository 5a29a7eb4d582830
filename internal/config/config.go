// Package config loads shramba settings from flags, SHRAMBA_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Prefix is the environment variable prefix.
const Prefix = "SHRAMBA"

// Commands.
const (
	CmdServe  = "serve"
	CmdSeed   = "seed"
	CmdImport = "import"
)

// ErrHelp is returned by Load after the usage text has been printed.
var ErrHelp = errors.New("help requested")

// Config holds all configuration for the application.
type Config struct {
	DB               string `conf:"default:shramba.sqlite3,short:d,help:SQLite database path"`
	Addr             string `conf:"default::8080,short:a,help:listen address"`
	Log              string `conf:"short:l,help:log file path (stdout/stderr only when empty)"`
	OfflineCache     bool   `conf:"default:true,help:serve the last good page when storage fails"`
	OfflineCacheSize int    `conf:"default:128,help:number of pages kept for offline fallback"`
	Development      bool   `conf:"default:false,help:relax security headers for local development"`
	Args             conf.Args
}

// Load reads the .env file if present, then flags and environment.
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()

	help, err := conf.Parse(Prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			fmt.Println("Commands: serve (default), seed, import <file>")
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Command returns the positional command and its argument. No command
// means serve.
func (c *Config) Command() (name, arg string, err error) {
	name = c.Args.Num(0)
	switch name {
	case "", CmdServe:
		name = CmdServe
	case CmdSeed:
	case CmdImport:
		arg = c.Args.Num(1)
		if arg == "" {
			return "", "", errors.New("import: missing file argument")
		}
	default:
		return "", "", fmt.Errorf("unknown command %q", name)
	}

	if extra := len(c.Args) - commandArity(name); extra > 0 {
		return "", "", fmt.Errorf("%s: unexpected argument %q", name, c.Args.Num(commandArity(name)))
	}
	return name, arg, nil
}

func commandArity(name string) int {
	if name == CmdImport {
		return 2
	}
	return 1
}
