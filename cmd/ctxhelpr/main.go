package main

import (
	"os"

	"github.com/rijuma/ctxhelpr/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
