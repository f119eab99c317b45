package root

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/api"
	"github.com/robert-crandall/journal-app/internal/config"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				cfg, err := config.Load(cfgFile)
				if err != nil {
					return err
				}
				addr = cfg.ListenAddr
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			return api.NewServer(svc, logger).Run(addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}
