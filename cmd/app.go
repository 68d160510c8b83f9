package cmd

import (
	"context"
	"fmt"
	"time"

	"clinic-manager/core/calendar"
	"clinic-manager/core/config"
	"clinic-manager/core/database"
	"clinic-manager/core/logger"
	"clinic-manager/core/reconcile"
	"clinic-manager/core/storage"
	"clinic-manager/core/syncstate"
	"clinic-manager/feature/appointments"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the collaborators shared by the commands.
type application struct {
	cfg       *config.Config
	log       *zap.Logger
	loc       *time.Location
	db        *gorm.DB
	gateway   calendar.Gateway
	directory *calendar.Directory
	source    *appointments.Source
	store     *syncstate.Store
	locker    *syncstate.Locker
	engine    *reconcile.Engine
	purger    *reconcile.Purger
}

// bootstrap loads the configuration and builds every collaborator.
// When requireDB is false a database failure is logged and the
// appointment source stays unavailable.
func bootstrap(ctx context.Context, requireDB bool) (*application, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}

	google, err := calendar.NewGoogleGateway(ctx, cfg.Calendar, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize calendar client: %w", err)
	}
	gateway := calendar.NewRetryingGateway(google, cfg.Calendar.RetryPolicy(), log)

	dirOpts, err := cfg.Calendar.DirectoryOptions()
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	if conn, err := database.Connect(cfg.Database); err != nil {
		if requireDB {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Warn("Appointments database unavailable", zap.Error(err))
	} else {
		db = conn
		log.Info("Connected to appointments database", zap.String("driver", cfg.Database.Driver))
	}

	backend, err := stateBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := syncstate.NewStore(backend, log)
	locker := syncstate.NewLocker()
	source := appointments.NewSource(db, log)

	engine := reconcile.NewEngine(source, gateway, store, locker, reconcile.Options{
		Location:        loc,
		DefaultDuration: cfg.Calendar.DefaultDuration(),
		DailyNoteStudio: cfg.Calendar.DailyNoteStudio,
	}, log)

	return &application{
		cfg:       cfg,
		log:       log,
		loc:       loc,
		db:        db,
		gateway:   gateway,
		directory: calendar.NewDirectory(gateway, dirOpts),
		source:    source,
		store:     store,
		locker:    locker,
		engine:    engine,
		purger:    reconcile.NewPurger(gateway, store, locker, log),
	}, nil
}

func stateBackend(ctx context.Context, cfg *config.Config) (syncstate.Backend, error) {
	if cfg.State.Backend != syncstate.BackendS3 {
		return syncstate.NewBackend(cfg.State, afero.NewOsFs(), nil, "")
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	backend, err := syncstate.NewBackend(cfg.State, nil, client, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	if ob, ok := backend.(*syncstate.ObjectBackend); ok {
		if err := ob.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare state bucket: %w", err)
		}
	}
	return backend, nil
}

// currentPeriod returns the current month and year in loc.
func currentPeriod(loc *time.Location) (int, int) {
	now := time.Now().In(loc)
	return int(now.Month()), now.Year()
}
