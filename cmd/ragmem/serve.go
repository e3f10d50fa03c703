package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandevgo/ragmemory/internal/transport/http"
	"github.com/sandevgo/ragmemory/pkg/log"
	"github.com/sandevgo/ragmemory/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP memory API",
	Long:  `Initializes storage, providers and background workers, then serves the JSON API until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx, false)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting ragmem")

		a := newApp(ctx)
		services := append(a.services, http.NewServer(ctx, a.appCfg, a.engine))

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, a.appCfg.ShutdownTimeout, services)

		logger.Info().Msg("ragmem has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
