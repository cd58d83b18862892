package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arjunpat/mathrise/internal/api"
	"github.com/arjunpat/mathrise/internal/config"
	"github.com/arjunpat/mathrise/internal/engine"
	"github.com/arjunpat/mathrise/internal/logger"
	"github.com/arjunpat/mathrise/internal/notify"
	"github.com/arjunpat/mathrise/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the progression HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := config.Load()

	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	log.Info("store open at %s", dbPath)

	bus := notify.NewBus(log)
	bus.OnUnlock(func(ev notify.UnlockEvent) {
		log.Info("student %s unlocked %q", ev.StudentID, ev.Name)
	})
	bus.OnDigest(func(d notify.ReviewDigest) {
		log.Info("student %s has %d reviews waiting", d.StudentID, d.DueCount)
	})

	eng := engine.New(db, bus, cfg, log)
	defer eng.Close()

	jobs := notify.NewScheduler(db, bus, cfg, log)
	jobs.Start()
	defer jobs.Stop()

	srv := &api.Server{Engine: eng}
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("received %s, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown: %v", err)
	}
	return nil
}
