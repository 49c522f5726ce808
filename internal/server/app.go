// Package server wires configuration, storage, services and the HTTP
// gateway together and runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/logging"
	"github.com/dmitrijs2005/yanplatform/internal/server/config"
	"github.com/dmitrijs2005/yanplatform/internal/server/httpapi"
	"github.com/dmitrijs2005/yanplatform/internal/server/httpserver"
	"github.com/dmitrijs2005/yanplatform/internal/server/metrics"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yanplatform/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

// openStore is a seam for tests.
var openStore = func(ctx context.Context, c *config.Config) (*sql.DB, dbx.Transactor, repomanager.RepositoryManager, error) {
	if c.UsesMemoryStore() {
		return nil, dbx.NoTx{}, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, dbx.NewSQLTransactor(db), rm, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, tx, rm, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.UsesMemoryStore() {
		logger.Warn(ctx, "using in-memory store; data is lost on restart")
	}

	mc := metrics.New()
	us := services.NewUserService(tx, rm, c, logger, mc)
	as := services.NewApplicationService(tx, rm, logger, mc)
	ps := services.NewProgressService(tx, rm)
	ds := services.NewDocumentService(c)

	handler := httpapi.NewRouter(httpapi.Deps{
		Config:       c,
		Users:        us,
		Applications: as,
		Progress:     ps,
		Documents:    ds,
		Metrics:      mc,
		Log:          logger,
	})

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
}

// Handler exposes the router, mainly for tests.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	s := httpserver.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.handler)
	err := s.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error(ctx, "db close failed", "error", cerr)
		}
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
