package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded in order before flag parsing. Earlier files win,
// and variables already present in the environment are never overwritten.
var DefaultEnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads each existing dotenv file and returns the ones applied.
// Missing files are skipped.
func LoadEnvFiles(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("config: stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("config: load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
