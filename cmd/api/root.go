package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/medscan/internal/config"
	"github.com/bryanwahyu/medscan/internal/observability"
)

var version = "dev"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medscan",
		Short: "AI-assisted medical image analysis service",
		Long: `medscan accepts medical image uploads, stores them, and runs a background
analysis through an OpenAI-compatible multimodal model.

Configuration comes from a YAML file (--config, CONFIG_PATH, or ./config.yaml)
with MEDSCAN_* environment overrides.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "path to config.yaml")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path, loads it and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flag, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(resolveConfigPath(flag))
	if err != nil {
		return nil, err
	}
	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// resolveConfigPath: flag, lalu CONFIG_PATH, lalu config.yaml kalau ada
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	if _, err := os.Stat("config.yaml"); err == nil || !errors.Is(err, os.ErrNotExist) {
		return "config.yaml"
	}
	return ""
}
