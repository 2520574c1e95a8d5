package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/cache"
	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
	"github.com/DachengChen/chatdb/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := applog.Named("serve")

	provider, err := ai.NewProvider(a.cfg.LLM)
	if err != nil {
		return err
	}
	applog.Event("startup", "provider ready",
		zap.String("provider", provider.Name()),
		zap.String("api_key", a.cfg.LLM.MaskedKey()),
	)

	conn := db.NewConnector(a.cfg.Database)
	defer conn.Close()
	if a.cfg.Database.URL != "" {
		log.Info("default database", zap.String("url", config.RedactURL(a.cfg.Database.URL)))
	}

	schemaCache, err := cache.New(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	defer schemaCache.Close()

	srv := server.New(a.cfg, chat.NewService(provider), server.ConnectorDatabases{Connector: conn}, schemaCache)
	err = srv.Run(ctx)
	applog.Event("shutdown", "server stopped", zap.Error(err))
	return err
}
