package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cremaze/cremaze/config"
	"github.com/cremaze/cremaze/database/migrations"
	"github.com/cremaze/cremaze/database/seeders"
	"github.com/cremaze/cremaze/pkg/database"
)

// bootDB loads config and opens the MongoDB connection.
func bootDB(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect(ctx)
}

// cremaze migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create collections and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := bootDB(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		fmt.Println("Running migrations…")
		return migrations.Run(ctx)
	},
}

// cremaze migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := bootDB(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		return migrations.Status(ctx)
	},
}

// cremaze seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the admin account and launch catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		if err := bootDB(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		fmt.Println("Seeding database…")
		return seeders.RunAll(ctx)
	},
}
