package app

import (
	"context"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/config"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/database"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/calendar"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Application wires configuration, storage, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}
	return newApplication(ctx, cfg)
}

func newApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps, err := BuildDependencies(repo, cfg)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}, nil
}

// openRepository returns the pool too when storage is postgres, so it can
// be closed on shutdown.
func openRepository(ctx context.Context, cfg config.Application) (calendar.Repository, *pgxpool.Pool, error) {
	switch cfg.Storage.Driver {
	case StorageMemory:
		log.Warn("Using in-memory storage, events are lost on restart")
		return calendar.NewMemoryRepository(), nil, nil
	case StoragePostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(cfg.Database); err != nil {
			db.Close()
			return nil, nil, err
		}
		return calendar.NewRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
}

// Run starts the HTTP server and blocks until ctx is done, then shuts the
// server down.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.srv.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *Application) close() {
	if a.db != nil {
		a.db.Close()
	}
}
