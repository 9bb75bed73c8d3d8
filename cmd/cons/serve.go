package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/api"
	"github.com/mattsonlyattack/cons/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local REST API server",
	Long:  `Starts the optional REST surface over the same store/search/enrichment services the CLI uses, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		server := api.NewServer(svc, cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Start(ctx, 10*time.Second)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
