package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-manager/core/jobs"
	"clinic-manager/core/loader"
	"clinic-manager/core/logger"
	"clinic-manager/core/middleware/auth"
	"clinic-manager/core/middleware/rayid"
	"clinic-manager/core/reconcile"
	"clinic-manager/core/scheduler"
	"clinic-manager/core/telemetry"

	"clinic-manager/feature/appointments"
	"clinic-manager/feature/calendar"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Clinic Manager API
// @version 1.0
// @description API for synchronizing clinic appointments to studio calendars.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the clinic manager server",
	Long:  `Starts the HTTP server, loads the calendar and appointments features and, when configured, the periodic sync scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 1. Configuration, logger and collaborators
		a, err := bootstrap(ctx, false)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := a.log
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 2. Telemetry (no-op without an endpoint)
		shutdownTelemetry, err := telemetry.Setup(ctx, a.cfg.Telemetry)
		if err != nil {
			logg.Warn("Telemetry disabled", zap.Error(err))
		}

		// 3. Fiber app
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Features
		registry := jobs.NewRegistry(logg)
		calendarFeature := calendar.NewFeature(calendar.Options{
			Engine:    a.engine,
			Purger:    a.purger,
			Directory: a.directory,
			Registry:  registry,
			Source:    a.source,
			Events: reconcile.Options{
				Location:        a.loc,
				DefaultDuration: a.cfg.Calendar.DefaultDuration(),
				DailyNoteStudio: a.cfg.Calendar.DailyNoteStudio,
			},
			Context: ctx,
		}, logg)

		mgr := loader.NewManager()
		mgr.Register(calendarFeature)
		mgr.Register(appointments.NewFeature(a.db, a.loc, logg))

		// 5. Middleware: ray id first so every log line carries it
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "sync_running": a.engine.Running()})
		})

		app.Use(auth.New(auth.Config{
			ApiKey:    a.cfg.Server.ApiKey,
			JWTSecret: a.cfg.Server.JWTSecret,
			Skip:      []string{"/health"},
		}))
		if !a.cfg.Server.AuthEnabled() {
			logg.Warn("No API key or JWT secret configured, the API is open")
		}

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Scheduler
		var sched *scheduler.Scheduler
		if a.cfg.Schedule.Enabled() {
			sched, err = scheduler.New(a.cfg.Schedule, a.loc, func(ctx context.Context, month, year int) (string, error) {
				return calendarFeature.Service().StartSync(ctx, month, year, false)
			}, logg)
			if err != nil {
				logg.Fatal("Failed to configure scheduler", zap.Error(err))
			}
			sched.Start()
		}

		// 7. Finished jobs expire
		retention := time.Duration(a.cfg.Server.JobRetentionMinutes) * time.Minute
		if retention > 0 {
			go pruneJobs(ctx, calendarFeature.Service(), retention, logg)
		}

		// 8. Server
		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(a.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful shutdown
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logg.Info("Shutting down server...")

		stopCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
		defer stop()

		if sched != nil {
			sched.Stop(stopCtx)
		}
		_ = app.ShutdownWithContext(stopCtx)

		// Running jobs stop between appointments and still save their state.
		cancel()
		done := make(chan struct{})
		go func() {
			registry.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-stopCtx.Done():
			logg.Warn("Jobs still running at shutdown")
		}

		if err := shutdownTelemetry(stopCtx); err != nil {
			logg.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	},
}

func pruneJobs(ctx context.Context, svc *calendar.Service, retention time.Duration, l *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.PruneJobs(retention); n > 0 {
				l.Debug("Expired finished jobs", zap.Int("count", n))
			}
		}
	}
}

func init() {
	RootCmd.AddCommand(startCmd)
}
