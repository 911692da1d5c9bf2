/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/dbh-bot/dbh/config"
	"github.com/dbh-bot/dbh/internal/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dbh",
	Short: "Discord bot entity cache and web account backend",
	Long: `dbh caches Discord users, guilds, redirect links and web accounts in
memory and writes them back to postgres on a fixed interval.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadRuntime() (config.Config, *slog.Logger) {
	cfg := config.LoadConfig()
	return cfg, logging.New(cfg.Log)
}
