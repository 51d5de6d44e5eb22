package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/layoutswap/internal/logfields"
)

// envFiles are loaded in order; a variable that is already set is never
// overwritten, so .env.local wins over .env and the process environment wins
// over both.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", slog.String("file", name), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", "file", name)
	}
}
