package cli

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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fieldsales/crm-comercios/internal/auth"
	"github.com/fieldsales/crm-comercios/internal/logging"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/web"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionSweep    = time.Hour
)

func newServeCmd() *cobra.Command {
	var port int
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  "Start an HTTP server for the web UI and JSON API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, port, watch)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config, 8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the merchant directory when its file changes")

	return cmd
}

func runServe(ctx context.Context, port int, watch bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logging.Setup(a.cfg.DevMode)
	if port == 0 {
		port = a.cfg.Port
	}

	visits, err := a.visitService(ctx)
	if err != nil {
		return err
	}
	planner, err := a.planner()
	if err != nil {
		return err
	}
	sessions := auth.NewSessionStore(a.db, a.cfg.SessionTTL, !a.cfg.DevMode)

	srv, err := web.NewServer(web.Deps{
		Directory: a.directory,
		Visits:    visits,
		Planner:   planner,
		Roles:     auth.NewRoles(a.cfg.Managers),
		Sessions:  sessions,
		Metrics:   a.metrics,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting web UI", "addr", "http://localhost"+httpSrv.Addr, "merchants", a.directory.Current().Len())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := sessions.Cleanup(); err != nil {
					slog.Warn("cleaning up sessions", "error", err)
				}
			}
		}
	})

	if watch || a.cfg.WatchDirectory {
		w := merchant.NewWatcher(a.directory, func(err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			a.metrics.DirectoryReloads.WithLabelValues(result).Inc()
		})
		g.Go(func() error { return w.Run(ctx) })
	}

	return g.Wait()
}
