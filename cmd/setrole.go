/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/dbh-bot/dbh/internal/presence"
	"github.com/dbh-bot/dbh/internal/server"
	"github.com/dbh-bot/dbh/internal/services"
	"github.com/spf13/cobra"
)

// setroleCmd assigns a role to a guild member.
var setroleCmd = &cobra.Command{
	Use:   "setrole <guild-id> <author-id> <role>",
	Short: "Assign a role to a guild member",
	Long: `Assign a role to a guild member and save it immediately.

The command keeps its own cache. A bot process that already caches the same
user writes its copy back at its next flush.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := loadRuntime()

		discord, err := presence.Open(cfg.DiscordToken)
		if err != nil {
			return err
		}

		app, err := server.NewApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		admin := services.NewAdmin(app.Users, discord, services.DefaultRoles())
		msg, err := admin.SetRole(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			if services.CodeOf(err) == services.CodeUnknownRole {
				fmt.Fprint(cmd.ErrOrStderr(), admin.Help())
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setroleCmd)
}
