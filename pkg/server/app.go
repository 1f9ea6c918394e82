package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FXCast/internal/usecase"
	"FXCast/pkg/config"
	xhttp "FXCast/pkg/http"
	applogger "FXCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	tiers      *usecase.TierSelector
	log        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, srv *xhttp.Server, tiers *usecase.TierSelector, l *applogger.Logger) *App {
	return &App{
		cfg:        cfg,
		httpServer: srv,
		tiers:      tiers,
		log:        l,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is cancelled, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	st := a.tiers.Status()
	a.log.Info("starting fxcast",
		applogger.String("env", a.cfg.Environment),
		applogger.String("tier", st.Tier.String()),
		applogger.Bool("calendar", st.CalendarAvailable),
		applogger.Bool("timezone", st.TimezoneAvailable),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	// the run context is already cancelled; give the server its own budget
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete", applogger.String("tier", a.tiers.Current().String()))
	return nil
}
