package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/go-disaster-reports/internal/api"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "seed",
			Usage: "Load sample reports and alerts into an empty database before serving",
		},
	},
	Action: serve,
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Bool("seed") {
		if _, err := runSeed(ctx, a); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(api.Deps{
		Reports:        a.reports,
		Alerts:         a.alerts,
		Importer:       a.importer,
		Stats:          a.stats,
		Store:          a.db,
		MaxUploadBytes: a.cfg.Import.MaxUploadBytes,
	})
	router := api.NewRouter(a.cfg, handler, a.metrics, a.registry)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	start := time.Now()
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("shutdown complete", "uptime", time.Since(start).Round(time.Second))
	return nil
}
