/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbh-bot/dbh/internal/mq"
	"github.com/dbh-bot/dbh/internal/server"
	"github.com/dbh-bot/dbh/internal/services"
	"github.com/spf13/cobra"
)

// flushCmd runs one flush cycle against the database.
var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Run one cache flush cycle and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := loadRuntime()

		app, err := server.NewApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		report, flushErr := app.Scheduler.Flush(cmd.Context())
		if err := printJSON(cmd, report); err != nil {
			return err
		}
		return flushErr
	},
}

var flushWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print flush reports published by running servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := loadRuntime()
		if cfg.RabbitMQ.URL == "" {
			return errors.New("RABBITMQ_URL is required")
		}

		backend, err := mq.DialRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		queue := mq.New(backend)
		defer queue.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = queue.Subscribe(ctx, cfg.RabbitMQ.FlushQueue, func(_ context.Context, msg mq.Message) error {
			var report services.FlushReport
			if err := json.Unmarshal(msg.Data, &report); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping malformed report %s: %v\n", msg.ID, err)
				return nil
			}
			return printJSON(cmd, report)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
	flushCmd.AddCommand(flushWatchCmd)
}

func printJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
