package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rijuma/ctxhelpr/internal/config"
	"github.com/rijuma/ctxhelpr/internal/dispatcher"
	"github.com/rijuma/ctxhelpr/internal/mcp"
	"github.com/rijuma/ctxhelpr/internal/watcher"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stdio MCP server",
	Long: `Start the Model Context Protocol server on stdio. Clients talk
JSON-RPC 2.0, one message per line, and call the ten tools
index_repository, get_overview, get_file_symbols, get_symbol_detail,
search_symbols, get_references, get_dependencies, index_status,
list_repos, and delete_repos.

With --watch, every repository already indexed is reindexed on
startup and then watched for filesystem changes, so query results
stay current without a client having to call index_repository again.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "watch indexed repositories for changes and auto-reindex")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newCLILogger()
	cache := newCache(logger)

	var coord *watcher.Coordinator
	var notify dispatcher.WatcherNotifier
	if serveWatch {
		var err error
		coord, err = watcher.NewCoordinator(cache, logger, indexerOptionsFor, nil)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		notify = func(absRepoPath string) {
			coord.Watch(absRepoPath, indexerOptionsFor(absRepoPath))
		}
	}

	disp := dispatcher.New(cache, indexerOptionsFor, notify, logger)

	if serveWatch {
		go coord.Run()
		go coord.StartupReindex(indexerOptionsFor)
		defer coord.Shutdown()
	}

	deps := mcp.Deps{
		Cache:      cache,
		Dispatcher: disp,
		Config:     config.Load,
		Logger:     logger,
	}
	handlers := mcp.NewToolHandlers(deps)
	server := mcp.NewServer(mcp.GetToolDefinitions(), handlers, logger)

	fmt.Fprintln(cmd.ErrOrStderr(), "ctxhelpr MCP server listening on stdio")
	return server.Start()
}
