package main

import (
	"github.com/spf13/cobra"

	"github.com/rijuma/ctxhelpr/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ctxhelpr",
	Short: "ctxhelpr - code context server",
	Long: `ctxhelpr indexes a repository's symbols and references into a local
SQLite database and serves them over a stdio Model Context Protocol
server, so an assistant can query a codebase's structure without
reading every file into context.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("ctxhelpr version {{.Version}}\n")
}
