package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rijuma/ctxhelpr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or validate ctxhelpr configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the merged global+local configuration for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate global and local config files against the config schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	repoRoot, err := resolveRepoPath(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	repoRoot, err := resolveRepoPath(args)
	if err != nil {
		return err
	}
	if _, err := config.Load(repoRoot); err != nil {
		fmt.Printf("config invalid: %v\n", err)
		return err
	}
	fmt.Println("config valid")
	return nil
}
