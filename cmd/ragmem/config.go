package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/pkg/env"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as .env lines",
	Long:  `Prints every non-empty setting after the environment and the .env file are applied. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context(), true)
		defer flushLog()

		sections := []any{
			config.NewAppConfig(ctx),
			config.NewLLMConfig(ctx),
			config.NewEmbeddingConfig(ctx),
			config.NewVectorConfig(ctx),
			config.NewRetrievalConfig(ctx),
			config.NewMemoryConfig(ctx),
		}

		out := cmd.OutOrStdout()
		for _, section := range sections {
			content, err := env.MarshalEnv(section)
			if err != nil {
				return err
			}
			fmt.Fprint(out, content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
