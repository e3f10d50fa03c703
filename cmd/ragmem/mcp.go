package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandevgo/ragmemory/internal/transport/mcp"
	"github.com/sandevgo/ragmemory/pkg/log"
	"github.com/sandevgo/ragmemory/pkg/srv"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the memory tools over MCP stdio",
	Long:  `Runs the same engine as serve, exposed as memory_query and memory_upload MCP tools on stdin/stdout. Logs go to the log directory only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx, true)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting ragmem mcp server")

		a := newApp(ctx)
		srv.StartServices(ctx, a.services)

		// Stdio ends when the client closes stdin; that ends the process too.
		err := mcp.NewServer(a.engine, os.Stdin, os.Stdout).Start(ctx)
		stop()
		srv.ShutdownServices(ctx, a.appCfg.ShutdownTimeout, a.services)

		if err != nil {
			logger.Error().Err(err).Msg("mcp server stopped with error")
			return err
		}
		logger.Info().Msg("ragmem mcp server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
