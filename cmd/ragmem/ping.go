package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/storage/vector"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured vector store is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context(), false)
		defer flushLog()

		appCfg := config.NewAppConfig(ctx)
		vecCfg := config.NewVectorConfig(ctx)

		store, err := vector.NewStore(ctx, vecCfg, appCfg)
		if err != nil {
			return err
		}
		defer store.Close()

		pingCtx, cancel := context.WithTimeout(ctx, vecCfg.Timeout)
		defer cancel()

		if !store.Ping(pingCtx) {
			return fmt.Errorf("%w: %s backend at %s:%d", core.ErrVectorStoreUnavailable, vecCfg.Backend, vecCfg.Host, vecCfg.Port)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s vector store is reachable\n", vecCfg.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
