package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danek0100/External-Observer/internal/config"
	"github.com/danek0100/External-Observer/internal/migrate"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply or inspect database migrations",
	}
	for _, dir := range []migrate.Direction{migrate.DirUp, migrate.DirStatus, migrate.DirDown} {
		cmd.AddCommand(migrateDirCmd(dir))
	}
	return cmd
}

func migrateDirCmd(dir migrate.Direction) *cobra.Command {
	short := map[migrate.Direction]string{
		migrate.DirUp:     "apply all pending migrations",
		migrate.DirStatus: "print applied and pending migrations",
		migrate.DirDown:   "roll back the latest migration",
	}[dir]

	cmd := &cobra.Command{
		Use:   string(dir),
		Short: short,
		Args:  cobra.NoArgs,
	}
	opts := config.Bind(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := config.Resolve(cmd.Flags(), opts); err != nil {
			return err
		}
		if opts.DSN == "" {
			return errors.New("dsn is required")
		}
		log, err := newLogger(opts.Dev)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		if err := migrate.Run(cmd.Context(), opts.DSN, dir); err != nil {
			log.Error("migrate", zap.String("direction", string(dir)), zap.Error(err))
			return err
		}
		log.Info("migrate done", zap.String("direction", string(dir)))
		return nil
	}
	return cmd
}
