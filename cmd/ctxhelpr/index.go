package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rijuma/ctxhelpr/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository's symbols and references",
	Long: `Walks the repository at path (default: current directory), extracts
symbols and references from every supported source file, and writes
them to that repository's local index database. Running it again
incrementally re-indexes only changed and deleted files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	repoRoot, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	logger := newCLILogger()
	cache := newCache(logger)

	db, err := cache.Open(repoRoot)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	opts := indexerOptionsFor(repoRoot)
	stats, err := indexer.Index(repoRoot, db, opts, logger)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	fmt.Printf("Indexed %s\n", repoRoot)
	fmt.Printf("  files: %d new, %d changed, %d unchanged, %d deleted, %d skipped (%d total)\n",
		stats.FilesNew, stats.FilesChanged, stats.FilesUnchanged, stats.FilesDeleted, stats.FilesSkipped, stats.FilesTotal)
	return nil
}
