package main

import (
	"github.com/rijuma/ctxhelpr/internal/config"
	"github.com/rijuma/ctxhelpr/internal/indexer"
)

// indexerOptionsFor resolves absRepoPath's merged config and converts it
// to the indexer.Options shape; a config load failure falls back to the
// built-in defaults rather than blocking indexing.
func indexerOptionsFor(absRepoPath string) indexer.Options {
	cfg, err := config.Load(absRepoPath)
	if err != nil {
		cfg = config.Default()
	}
	return indexer.Options{
		IgnorePatterns: cfg.Indexer.Ignore,
		MaxFileSize:    cfg.Indexer.MaxFileSize,
	}
}
