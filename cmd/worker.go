package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/shaan-hospital/apiserver/config"
	"github.com/shaan-hospital/apiserver/internal/cleanup"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/mq"
	"github.com/shaan-hospital/apiserver/internal/storage"
	"github.com/spf13/cobra"
)

var cleanupWorkerCmd = &cobra.Command{
	Use:   "cleanup-worker",
	Short: "Consume image cleanup jobs from the message broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logger.New(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Storage.Backend == "" {
			return errors.New("STORAGE_BACKEND is required for the cleanup worker")
		}
		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open object storage: %w", err)
		}

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open message broker: %w", err)
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is required for the cleanup worker")
		}
		defer broker.Close()

		err = cleanup.NewWorker(objects, broker, cfg.MQ.CleanupChannel, log).Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(cleanupWorkerCmd)
}
