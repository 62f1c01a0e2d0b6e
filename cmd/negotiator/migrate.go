// cmd/negotiator/migrate.go
package main

import (
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/unclebandit/creator-negotiator/internal/db"
)

func migrateCommands(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	run := func(dir migrate.MigrationDirection) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			conn, err := db.Connect(c.cnf.DataSource.Dns)
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := db.Migrate(conn, dir)
			if err != nil {
				return err
			}
			log.Infof("✅ Applied %d migration(s)", n)
			return nil
		}
	}

	cmd.AddCommand(&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: run(migrate.Up)})
	cmd.AddCommand(&cobra.Command{Use: "down", Short: "Roll back the schema", RunE: run(migrate.Down)})
	return cmd
}
