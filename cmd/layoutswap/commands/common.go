// Package commands implements the layoutswap command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/layoutswap/internal/config"
)

// EnvLogLevel overrides the log level chosen by --verbose.
const EnvLogLevel = "LAYOUTSWAP_LOG_LEVEL"

// Global carries process-wide state into subcommands.
type Global struct {
	Ctx    context.Context
	Stdout io.Writer
	Logger *slog.Logger
}

func (g *Global) runContext() context.Context {
	if g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) log() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: ${default_config} when present)" type:"path"`
	Env     string           `short:"e" name:"env" help:"Named environment from the configuration file"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Migrate MigrateCmd `cmd:"" help:"Rewrite matching layout references and commit them"`
	Report  ReportCmd  `cmd:"" help:"List the URLs of pages that would be migrated"`
	History HistoryCmd `cmd:"" help:"Show journaled runs, or the records of one run"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(v)); err == nil {
			level = parsed
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// configPath resolves the configuration file to load; "" means none.
func (c *CLI) configPath() string {
	if c.Config != "" {
		return c.Config
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.DefaultPath
	}
	return ""
}

// loadConfig loads the configuration and applies the selected environment.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Select(c.Env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Vars are the interpolation variables of the CLI help.
func Vars() kong.Vars {
	return kong.Vars{"default_config": config.DefaultPath}
}
