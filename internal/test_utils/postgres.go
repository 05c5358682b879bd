package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/config"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "calendar"
	dbUser     = "test_calendar"
	dbPassword = "test_calendar"
	snapshot   = "calendar-test-snapshot"
)

// Postgres is a migrated database in a container. Restore resets it to the
// state right after migrations.
type Postgres struct {
	Container *postgres.PostgresContainer
	Config    config.Database
}

func preparePostgresContainer(ctx context.Context) (*postgres.PostgresContainer, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	return pgContainer, nil
}

// StartPostgres starts a Postgres container, applies all migrations and
// snapshots the result.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := preparePostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   dbUser,
		Pass:   dbPassword,
		Name:   dbName,
		Schema: "calendar",
	}
	if err := database.Migrate(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err := container.Snapshot(ctx, postgres.WithSnapshotName(snapshot)); err != nil {
		return nil, fmt.Errorf("failed to snapshot postgres container: %w", err)
	}

	return &Postgres{Container: container, Config: cfg}, nil
}

func (p *Postgres) Open(ctx context.Context) (*pgxpool.Pool, error) {
	return database.Open(ctx, p.Config)
}

// Restore must be called with every pool closed; Postgres cannot drop a
// database that still has connections.
func (p *Postgres) Restore(ctx context.Context) error {
	return p.Container.Restore(ctx, postgres.WithSnapshotName(snapshot))
}

// findProjectRoot walks up to the directory holding go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
