package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/taixiu-ai/internal/api"
	"github.com/yourusername/taixiu-ai/internal/health"
	"github.com/yourusername/taixiu-ai/internal/metrics"
	"github.com/yourusername/taixiu-ai/internal/scheduler"
	"github.com/yourusername/taixiu-ai/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP prediction service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"backend":     cfg.History.Backend,
		"version":     Version,
	}).Info("Prediction service starting")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := stream.NewHub(appLog)
	a.service.SetPublisher(hub)

	probes := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Commit:      GitCommit,
		Checks:      map[string]health.Pinger{"history": a.store},
	})

	router := api.NewRouter(api.Config{
		Name:           cfg.App.Name,
		Version:        cfg.App.Version,
		APIKey:         cfg.Server.APIKey,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, api.Dependencies{
		Predictor: a.service,
		History:   a.store,
		Reports:   a.service.Reports(),
		Stream:    hub,
		Health:    probes,
		Logger:    appLog,
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var poller *scheduler.Scheduler
	if cfg.Poller.Enabled {
		poller = scheduler.NewScheduler(a.service, appLog)
		if err := poller.SchedulePolling(cfg.Poller.IntervalSeconds); err != nil {
			return err
		}
		if err := poller.Start(); err != nil {
			return err
		}
		appLog.WithField("next_run", poller.GetNextRun()).Info("Upstream poller running")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLog.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	probes.SetReady(true)

	g.Go(func() error {
		<-gctx.Done()
		probes.SetReady(false)
		appLog.Info("Shutdown signal received")

		if poller != nil {
			if err := poller.Stop(); err != nil {
				appLog.WithError(err).Warn("Poller did not stop cleanly")
			}
		}
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLog.Info("Prediction service shut down")
	return nil
}
