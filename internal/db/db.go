// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations is the embedded schema history.
func Migrations() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

func Connect(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	log.Info("✅ Connected to database")
	return conn, nil
}

// Migrate applies (or rolls back) the embedded migrations and returns how many ran.
func Migrate(conn *sql.DB, dir migrate.MigrationDirection) (int, error) {
	n, err := migrate.Exec(conn, "postgres", Migrations(), dir)
	if err != nil {
		return n, errors.Wrap(err, "run migrations")
	}
	return n, nil
}

func NewRedis(cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Addr)
	}

	log.Info("✅ Connected to redis")
	return client, nil
}
