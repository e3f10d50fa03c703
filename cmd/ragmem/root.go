package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const defaultEnvFile = ".env"

var (
	debug   bool
	envFile string
)

var rootCmd = &cobra.Command{
	Use:     core.AppName,
	Short:   "Persistent conversational memory for AI agents",
	Long:    `ragmem stores dialogue turns per user, recalls relevant memories on demand and keeps a running summary and profile of every user.`,
	Version: core.AppVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(envFile, cmd.Flags().Changed("env-file"))
	},
	SilenceUsage: true,
	// serve is the default command
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "path to a .env file")
}

// loadEnv loads the .env file. A missing default file is fine, a missing
// file that was asked for explicitly is not.
func loadEnv(path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// setupLogger must run after loadEnv. quiet keeps stdout free for protocols
// that own it.
func setupLogger(ctx context.Context, quiet bool) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, log.Options{
		Debug: debug || config.IsDebug(),
		Dir:   config.LogDir(),
		Quiet: quiet,
	})
}
