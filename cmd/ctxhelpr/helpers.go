package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/storage"
)

// resolveRepoPath returns args[0] if present, else the current working
// directory, always as an absolute path.
func resolveRepoPath(args []string) (string, error) {
	p := "."
	if len(args) > 0 {
		p = args[0]
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve repo path: %w", err)
	}
	return abs, nil
}

func newCLILogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})
}

func newCache(logger *logging.Logger) *storage.Cache {
	return storage.NewCache(logger)
}
