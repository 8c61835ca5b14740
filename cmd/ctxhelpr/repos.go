package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List or delete indexed repositories",
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every repository recorded in an index database",
	RunE:  runReposList,
}

var reposDeleteCmd = &cobra.Command{
	Use:   "delete <path>... | --all",
	Short: "Delete one or more repositories' indexes",
	RunE:  runReposDelete,
}

var reposDeleteAll bool

func init() {
	reposDeleteCmd.Flags().BoolVar(&reposDeleteAll, "all", false, "delete every indexed repository")
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposDeleteCmd)
	rootCmd.AddCommand(reposCmd)
}

func runReposList(cmd *cobra.Command, args []string) error {
	logger := newCLILogger()
	cache := newCache(logger)

	repos, err := cache.ListIndexedRepos()
	if err != nil {
		return fmt.Errorf("list repos: %w", err)
	}
	if len(repos) == 0 {
		fmt.Println("No repositories indexed yet.")
		return nil
	}
	for _, r := range repos {
		last := "never"
		if r.LastIndexedAt != nil {
			last = *r.LastIndexedAt
		}
		fmt.Printf("%s  (last indexed: %s)\n", r.AbsPath, last)
	}
	return nil
}

func runReposDelete(cmd *cobra.Command, args []string) error {
	logger := newCLILogger()
	cache := newCache(logger)

	if reposDeleteAll {
		deleted, errs := cache.DeleteAllRepoIndexes()
		fmt.Printf("Deleted %d repositories.\n", deleted)
		for _, e := range errs {
			fmt.Printf("  error: %v\n", e)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("repos delete requires at least one path, or --all")
	}

	var deleted int
	for _, p := range args {
		abs, err := filepath.Abs(p)
		if err != nil {
			fmt.Printf("  %s: %v\n", p, err)
			continue
		}
		if err := cache.DeleteRepoIndex(abs); err != nil {
			fmt.Printf("  %s: %v\n", p, err)
			continue
		}
		deleted++
	}
	fmt.Printf("Deleted %d repositories.\n", deleted)
	return nil
}
