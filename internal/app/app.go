// Package app initializes and holds the long-lived services of the engine,
// acting as the composition root.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mellyssy/feedwatch/internal/api"
	"github.com/mellyssy/feedwatch/internal/clock/system"
	"github.com/mellyssy/feedwatch/internal/config"
	"github.com/mellyssy/feedwatch/internal/events"
	"github.com/mellyssy/feedwatch/internal/events/sinks"
	collyfetch "github.com/mellyssy/feedwatch/internal/fetch/colly"
	"github.com/mellyssy/feedwatch/internal/id/uuid"
	"github.com/mellyssy/feedwatch/internal/lifecycle"
	"github.com/mellyssy/feedwatch/internal/logging"
	"github.com/mellyssy/feedwatch/internal/poller"
	"github.com/mellyssy/feedwatch/internal/state"
)

// App holds the wired services of a running feedwatch instance.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	hub     *events.Hub
	broker  *api.Broker
	store   *state.Store
	poller  *poller.Poller
	machine *lifecycle.Machine
	server  *http.Server
}

// New builds the full service graph from configuration. It fails fast if any
// service cannot be constructed.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	broker := api.NewBroker()
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	hub := events.NewHub(events.Config{
		BufferSize:     cfg.Events.BufferSize,
		MaxBatchEvents: cfg.Events.MaxBatchEvents,
		MaxBatchWait:   cfg.Events.MaxBatchWait(),
		Logger:         logger,
	}, sinks.NewLogSink(logger), promSink, broker)

	ids := uuid.New()
	clk := system.New()
	store := state.New(ids, clk, hub)
	fetcher := collyfetch.New(collyfetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout(),
	})
	pol := poller.New(fetcher, store, hub, clk, logger, cfg.Poll.Interval())
	machine := lifecycle.New(pol, store, hub, clk, logger)
	apiServer := api.NewServer(store, machine, broker, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		hub:     hub,
		broker:  broker,
		store:   store,
		poller:  pol,
		machine: machine,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run starts the refresh loop and the HTTP server and blocks until ctx is
// canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("feedwatch starting",
		zap.Int("port", a.cfg.Server.Port),
		zap.Duration("refresh_interval", a.cfg.Poll.Interval()),
	)

	go a.poller.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func (a *App) shutdown() error {
	a.logger.Info("feedwatch shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("http shutdown failed", zap.Error(err))
	}
	// Closing the hub flushes pending events and closes all sinks,
	// including the SSE broker.
	if err := a.hub.Close(ctx); err != nil {
		a.logger.Warn("event hub close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
	return nil
}
