package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFileNames are loaded in order; earlier files win because godotenv.Load
// never overwrites variables that are already set.
var envFileNames = []string{".env.local", ".env"}

// LoadEnvFiles loads .env.local and .env from dir, if present.
// Variables already present in the process environment are kept.
func LoadEnvFiles(dir string) error {
	for _, name := range envFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
		slog.Debug("Loaded environment file", "path", path)
	}
	return nil
}
