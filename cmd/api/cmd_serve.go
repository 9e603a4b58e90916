package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"giving-hand-api-server/internal/api/routes"
	"giving-hand-api-server/internal/auth"
	"giving-hand-api-server/internal/database"
	"giving-hand-api-server/internal/dialog"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/projection"
	"giving-hand-api-server/internal/s3"
	"giving-hand-api-server/internal/socket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with its background sweeps",
	Long: `Starts the HTTP API. Alongside it, overdue tickets are expired on
sweep.interval and, with a mongo primary and mirror.enabled, the local
ticket mirror is refreshed on mirror.reconcileInterval.

The accounts are seeded on first start when the store has no users.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.New("serve")
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	be, err := openBackend(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer be.Close()

	seed, err := database.SeedIfEmpty(ctx, be.store.Users(), cfg.Seed)
	if err != nil {
		return err
	}
	seed.PrintGeneratedPassword(cmd.ErrOrStderr(), cfg.Seed.AdminEmail)

	issuer, err := auth.NewIssuer(cfg.JWTSecret(), cfg.JWT.Expiration)
	if err != nil {
		return err
	}
	bot, err := dialog.Load()
	if err != nil {
		return err
	}

	deps := routes.Deps{
		Config:  cfg,
		Store:   be.store,
		Views:   projection.New(be.store, nil),
		Issuer:  issuer,
		Hub:     socket.NewHub(),
		Dialog:  bot,
		Metrics: m,
	}
	deps.Tickets = lifecycle.New(be.store, lifecycle.WithNotifier(deps.Hub), lifecycle.WithMetrics(m))

	if cfg.S3.Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			return err
		}
		deps.Uploader = uploader
	} else {
		log.Warn("s3.bucket not set, proof uploads are disabled")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           routes.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(deps.Tickets.RunSweep(ctx, cfg.Sweep.Interval))
	})
	if be.mirror != nil {
		g.Go(func() error {
			return ignoreCanceled(be.mirror.Run(ctx, cfg.Mirror.ReconcileInterval))
		})
	}

	err = g.Wait()
	log.Info("server stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
