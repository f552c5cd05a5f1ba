package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "PortWatch/internal/domain/repository"
	"PortWatch/internal/scheduler"
	pkgch "PortWatch/pkg/clickhouse"
	"PortWatch/pkg/config"
	xhttp "PortWatch/pkg/http"
	pkgkafka "PortWatch/pkg/kafka"
	applogger "PortWatch/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	consumer    *pkgkafka.Consumer
	barsHandler pkgkafka.MessageHandler
	sched       *scheduler.Scheduler
	chClient    *pkgch.Client
	publisher   domrepo.AlertPublisher
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	barsHandler pkgkafka.MessageHandler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
	publisher domrepo.AlertPublisher,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		consumer:    consumer,
		barsHandler: barsHandler,
		sched:       sched,
		chClient:    chClient,
		publisher:   publisher,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start bar ingestion consumer if configured
	if a.consumer != nil && a.barsHandler != nil {
		a.consumer.RegisterHandler(a.barsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.barsHandler.Topic()))
	}

	// Scheduled evaluation runs
	if a.sched != nil {
		if err := a.sched.Register(a.cfg.Engine.Schedule); err != nil {
			a.l.Error("scheduler register error", applogger.Error(err))
			return err
		}
		a.sched.Start()
		if a.cfg.Engine.Schedule != "" {
			a.l.Info("scheduler started", applogger.String("schedule", a.cfg.Engine.Schedule))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.sched != nil {
		a.sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("alert publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
