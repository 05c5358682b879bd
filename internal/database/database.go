package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns = 10
	minConns = 1
)

// Open connects a pool to the calendar database and pings it.
func Open(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("invalid calendar database settings: %w", err)
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("could not open calendar database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("calendar database %s:%d unreachable: %w", cfg.Host, cfg.Port, err)
	}
	return pool, nil
}

// Migrate brings the calendar schema up to the latest migration.
func Migrate(cfg config.Database) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+dir, migrationURL(cfg))
	if err != nil {
		return fmt.Errorf("could not prepare calendar migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("calendar migrations failed: %w", err)
	}
	return nil
}

var connValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// connString renders cfg as a keyword/value connection string. Every value
// is quoted; the schema goes into the session search_path.
func connString(cfg config.Database) string {
	pairs := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", strconv.Itoa(cfg.Port)},
		{"user", cfg.User},
		{"password", cfg.Pass},
		{"dbname", cfg.Name},
		{"sslmode", "disable"},
		{"options", "-c search_path=" + cfg.Schema},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.key+"='"+connValueEscaper.Replace(p.value)+"'")
	}
	return strings.Join(parts, " ")
}

// migrationURL is the URL form golang-migrate expects.
func migrationURL(cfg config.Database) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Pass),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
		RawQuery: url.Values{
			"sslmode":     {"disable"},
			"search_path": {cfg.Schema},
		}.Encode(),
	}
	return u.String()
}

// migrationsDir finds the migrations directory in the working directory or
// the closest parent holding one, so package tests find it too.
func migrationsDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("no migrations directory above %s", wd)
		}
	}
}
