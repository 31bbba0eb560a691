package ada

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odit-bit/ada/ada/config"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	e   *echo.Echo
	app *App
	cfg *config.Config
}

func NewHttp(ctx context.Context, cfg *config.Config) (*Server, error) {
	// ada instance
	app, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// http server
	e := echo.New()
	e.HideBanner = true

	// http handler
	RestHandler(e, Handler{
		Turner:   app,
		Sender:   app.Sender,
		Sessions: app.Sessions,
		Region:   cfg.Messaging.DefaultRegion,
	})

	return &Server{e: e, app: app, cfg: cfg}, nil
}

// Start serve the webhook until ctx is done, then release every resource.
func (s *Server) Start(ctx context.Context) (err error) {
	// start observability
	shutdown, err := InitObservability(ctx, "ada-server", s.cfg.Observe)
	if err != nil {
		return fmt.Errorf("failed init obervability: %w", err)
	}

	go s.app.Sessions.Run(ctx)

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		// shutdown
		slog.Info("shutdown http server...")
		xerr := s.e.Shutdown(shutdownCtx)

		slog.Info("shutdown observability providers...")
		xerr = errors.Join(xerr, shutdown(shutdownCtx))

		slog.Info("close storage and sessions...")
		done <- errors.Join(xerr, s.app.Close())
	}()

	slog.Info("ada server listening", "address", s.cfg.Server.Address, "variant", s.cfg.Dialogue.Variant)
	if xerr := s.e.Start(s.cfg.Server.Address); !errors.Is(xerr, http.ErrServerClosed) {
		return xerr
	}
	return <-done
}

// RunChannel drive a channel without the webhook, such as the telegram bot.
// Observability and the session sweeper run until run returns; with the
// prometheus exporter /metrics is served on the server address.
// Every resource of app is released before returning.
func RunChannel(ctx context.Context, serviceName string, app *App, run func(ctx context.Context) error) error {
	shutdown, err := InitObservability(ctx, serviceName, app.Config.Observe)
	if err != nil {
		return errors.Join(fmt.Errorf("failed init obervability: %w", err), app.Close())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.Sessions.Run(ctx)

	var e *echo.Echo
	if obs := app.Config.Observe; obs.Enable && (obs.Metrics == "" || obs.Metrics == "prometheus") {
		e = echo.New()
		e.HideBanner = true
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
		go func() {
			if xerr := e.Start(app.Config.Server.Address); !errors.Is(xerr, http.ErrServerClosed) {
				slog.Error("metrics listener stopped", "address", app.Config.Server.Address, "error", xerr)
			}
		}()
	}

	err = run(ctx)

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if e != nil {
		err = errors.Join(err, e.Shutdown(shutdownCtx))
	}
	slog.Info("shutdown observability providers...")
	err = errors.Join(err, shutdown(shutdownCtx))
	return errors.Join(err, app.Close())
}
