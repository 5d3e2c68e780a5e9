// Package app wires the schedule pipeline for a process.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wilhg/busschedule/pkg/config"
	"github.com/wilhg/busschedule/pkg/database"
	"github.com/wilhg/busschedule/pkg/viewmodel"
)

// App is the bootstrap collaborator handed to screen construction code.
type App struct {
	cfg      config.Config
	log      *zap.Logger
	provider *database.Provider

	mu    sync.Mutex
	scope *viewmodel.Scope
}

// New creates an App. Nothing is opened until Database is called.
func New(cfg config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{cfg: cfg, log: log, provider: database.NewProvider(cfg, log)}
}

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config { return a.cfg }

// Database returns the process-wide store handle.
func (a *App) Database(ctx context.Context) (*database.Handle, error) {
	return a.provider.Get(ctx)
}

// ViewModels returns the navigation scope whose models are bound to the
// store's gateway. The scope is created once and reused.
func (a *App) ViewModels(ctx context.Context) (*viewmodel.Scope, error) {
	h, err := a.Database(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scope == nil {
		a.scope = viewmodel.NewScope(viewmodel.NewFactory(h.ScheduleGateway()))
	}
	return a.scope, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error { return a.provider.Close() }
